// Package knowledge persists accumulated knowledge entries as Redis hashes
// under an FT index.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/agridex/internal/db"
	"github.com/kailas-cloud/agridex/internal/domain"
	domknow "github.com/kailas-cloud/agridex/internal/domain/knowledge"
	"github.com/kailas-cloud/agridex/internal/domain/normalize"
)

// store is the consumer interface for knowledge persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) error
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements knowledge persistence and full-text lookups.
type Repo struct {
	store  store
	prefix string
}

// New creates a knowledge repository. prefix is the global key prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// IndexName returns the FT index name for knowledge entries.
func (r *Repo) IndexName() string { return r.prefix + "knowledge:idx" }

func (r *Repo) keyPrefix() string { return r.prefix + "knowledge:" }

func (r *Repo) key(id string) string { return r.keyPrefix() + id }

// EnsureIndex creates the knowledge FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:   r.IndexName(),
		Prefix: r.keyPrefix(),
		Fields: []db.IndexField{
			{Name: fieldID, Type: db.IndexFieldTag},
			{Name: fieldFarmID, Type: db.IndexFieldTag},
			{Name: fieldOwnerID, Type: db.IndexFieldTag},
			{Name: fieldCategory, Type: db.IndexFieldTag},
			{Name: fieldTags, Type: db.IndexFieldTag, TagSeparator: tagSeparator},
			{Name: fieldConfidence, Type: db.IndexFieldNumeric, Sortable: true},
			{Name: fieldLastUsed, Type: db.IndexFieldNumeric, Sortable: true},
			{Name: fieldSearchText, Type: db.IndexFieldText},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create knowledge index: %w", err)
	}
	return nil
}

// Insert persists a knowledge entry.
func (r *Repo) Insert(ctx context.Context, e *domknow.Entry) error {
	fields, err := Fields(e)
	if err != nil {
		return fmt.Errorf("%w: flatten knowledge %s: %w", domain.ErrPersistenceFailure, e.ID(), err)
	}
	if err := r.store.HSet(ctx, r.key(e.ID()), fields); err != nil {
		return fmt.Errorf("%w: store knowledge %s: %w", domain.ErrPersistenceFailure, e.ID(), err)
	}
	return nil
}

// Get returns a knowledge entry by id.
func (r *Repo) Get(ctx context.Context, id string) (domknow.Entry, error) {
	fields, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return domknow.Entry{}, fmt.Errorf("load knowledge %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domknow.Entry{}, domain.ErrKnowledgeNotFound
	}
	e, err := Parse(fields)
	if err != nil {
		return domknow.Entry{}, fmt.Errorf("parse knowledge %s: %w", id, err)
	}
	return e, nil
}

// SearchQuery restricts a knowledge search. Owner and MinConfidence are
// always applied; FarmID and Category are optional narrows.
type SearchQuery struct {
	OwnerID       string
	FarmID        string
	Category      domknow.Category
	Text          string
	MinConfidence float64
	Limit         int
}

// Search runs a full-text search over the owner's knowledge entries with a
// minimum confidence bound, best match first. Returns
// domain.ErrIndexUnavailable when the index does not exist.
func (r *Repo) Search(ctx context.Context, q SearchQuery) ([]domknow.Entry, error) {
	filter := db.Filter{
		All: []db.TagClause{
			{Field: fieldOwnerID, Values: []string{q.OwnerID}},
		},
		Ranges: []db.RangeClause{
			{Field: fieldConfidence, Min: &q.MinConfidence},
		},
	}
	if q.FarmID != "" {
		filter.All = append(filter.All, db.TagClause{Field: fieldFarmID, Values: []string{q.FarmID}})
	}
	if q.Category != "" {
		filter.All = append(filter.All, db.TagClause{Field: fieldCategory, Values: []string{string(q.Category)}})
	}

	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		Index:  r.IndexName(),
		Field:  fieldSearchText,
		Text:   normalize.Text(q.Text),
		Filter: filter,
		Limit:  q.Limit,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("knowledge search: %w", domain.ErrIndexUnavailable)
		}
		return nil, fmt.Errorf("knowledge search: %w", err)
	}

	entries := make([]domknow.Entry, 0, len(sr.Entries))
	for _, hit := range sr.Entries {
		e, err := Parse(hit.Fields)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Touch records a usage of the entry: increments the frequency counter and
// stamps last_used. Failures here are non-fatal for search flows, so the
// caller decides whether to log or propagate.
func (r *Repo) Touch(ctx context.Context, id string, at time.Time) error {
	key := r.key(id)
	if err := r.store.HIncrBy(ctx, key, fieldFrequency, 1); err != nil {
		return fmt.Errorf("touch knowledge %s: %w", id, err)
	}
	stamp := map[string]string{fieldLastUsed: strconv.FormatInt(at.Unix(), 10)}
	if err := r.store.HSet(ctx, key, stamp); err != nil {
		return fmt.Errorf("touch knowledge %s: %w", id, err)
	}
	return nil
}
