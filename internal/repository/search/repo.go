// Package search runs indexed retrieval over the record corpus: BM25 keyword
// search and KNN vector search, both scoped to an owner.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/agridex/internal/db"
	"github.com/kailas-cloud/agridex/internal/domain"
	"github.com/kailas-cloud/agridex/internal/domain/normalize"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
	"github.com/kailas-cloud/agridex/internal/domain/search/result"
	recrepo "github.com/kailas-cloud/agridex/internal/repository/record"
)

// store is the consumer interface for indexed search (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo runs the two retrieval channels against the record index.
type Repo struct {
	store store
	index string
}

// New creates a search repository. index is the record FT index name.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// SearchKeyword runs BM25 full-text search over the record content field,
// best match first. Returns domain.ErrIndexUnavailable when the index does
// not exist.
func (r *Repo) SearchKeyword(ctx context.Context, scope query.Scope, text string, limit int) ([]result.Hit, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		Index:  r.index,
		Field:  recrepo.ContentField,
		Text:   normalize.Text(text),
		Filter: buildScope(scope),
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("keyword search: %w", domain.ErrIndexUnavailable)
		}
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return toHits(sr), nil
}

// SearchVector runs KNN vector search, nearest first. Returns
// domain.ErrIndexUnavailable when the index does not exist.
func (r *Repo) SearchVector(ctx context.Context, scope query.Scope, vector []float32, k int) ([]result.Hit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		Index:  r.index,
		Filter: buildScope(scope),
		Vector: vector,
		K:      k,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("vector search: %w", domain.ErrIndexUnavailable)
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return toHits(sr), nil
}

// buildScope translates a domain scope into an FT pre-filter. Dates are
// compared as unix seconds against the numeric date field.
func buildScope(scope query.Scope) db.Filter {
	f := db.Filter{
		All: []db.TagClause{
			{Field: recrepo.OwnerField, Values: []string{scope.OwnerID()}},
		},
	}
	if scope.FieldID() != "" {
		f.All = append(f.All, db.TagClause{Field: recrepo.FieldIDField, Values: []string{scope.FieldID()}})
	}
	if scope.Category() != "" {
		f.All = append(f.All, db.TagClause{Field: recrepo.CategoryField, Values: []string{string(scope.Category())}})
	}
	if scope.Quality() != "" {
		f.All = append(f.All, db.TagClause{Field: recrepo.QualityField, Values: []string{string(scope.Quality())}})
	}

	rng := db.RangeClause{Field: recrepo.DateField}
	if from := scope.DateFrom(); !from.IsZero() {
		min := float64(from.Unix())
		rng.Min = &min
	}
	if to := scope.DateTo(); !to.IsZero() {
		max := float64(to.Unix())
		rng.Max = &max
	}
	if rng.Min != nil || rng.Max != nil {
		f.Ranges = append(f.Ranges, rng)
	}
	return f
}

func toHits(sr *db.SearchResult) []result.Hit {
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		rec, err := recrepo.Parse(entry.Fields)
		if err != nil {
			continue
		}
		hits = append(hits, result.New(rec, entry.Score))
	}
	return hits
}
