// Package record persists activity records as Redis hashes under an FT index.
package record

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/agridex/internal/db"
	"github.com/kailas-cloud/agridex/internal/domain"
	domrec "github.com/kailas-cloud/agridex/internal/domain/record"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
)

// store is the consumer interface for record persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchSorted(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// IndexConfig holds HNSW tuning for the record index.
type IndexConfig struct {
	VectorDim   int
	M           int
	EFConstruct int
}

// Repo implements record persistence and structural similarity lookups.
type Repo struct {
	store  store
	prefix string
	index  IndexConfig
}

// New creates a record repository. prefix is the global key prefix.
func New(s store, prefix string, index IndexConfig) *Repo {
	return &Repo{store: s, prefix: prefix, index: index}
}

// IndexName returns the FT index name for records.
func (r *Repo) IndexName() string { return r.prefix + "records:idx" }

func (r *Repo) keyPrefix() string { return r.prefix + "records:" }

func (r *Repo) key(id string) string { return r.keyPrefix() + id }

// EnsureIndex creates the record FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:   r.IndexName(),
		Prefix: r.keyPrefix(),
		Fields: []db.IndexField{
			{Name: fieldID, Type: db.IndexFieldTag},
			{Name: fieldOwnerID, Type: db.IndexFieldTag},
			{Name: fieldFieldID, Type: db.IndexFieldTag},
			{Name: fieldCategory, Type: db.IndexFieldTag},
			{Name: fieldQuality, Type: db.IndexFieldTag},
			{Name: fieldTags, Type: db.IndexFieldTag, TagSeparator: tagSeparator},
			{Name: fieldDate, Type: db.IndexFieldNumeric, Sortable: true},
			{Name: fieldContent, Type: db.IndexFieldText},
			{
				Name: fieldVector, Type: db.IndexFieldVector,
				VectorDim:         r.index.VectorDim,
				VectorM:           r.index.M,
				VectorEFConstruct: r.index.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create record index: %w", err)
	}
	return nil
}

// Insert persists a record. Records are write-once; a failed write is a
// fatal persistence failure for the ingestion pipeline.
func (r *Repo) Insert(ctx context.Context, rec *domrec.Record) error {
	fields, err := Fields(rec)
	if err != nil {
		return fmt.Errorf("%w: flatten record %s: %w", domain.ErrPersistenceFailure, rec.ID(), err)
	}
	if err := r.store.HSet(ctx, r.key(rec.ID()), fields); err != nil {
		return fmt.Errorf("%w: store record %s: %w", domain.ErrPersistenceFailure, rec.ID(), err)
	}
	return nil
}

// Get returns a record by id.
func (r *Repo) Get(ctx context.Context, id string) (domrec.Record, error) {
	fields, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return domrec.Record{}, fmt.Errorf("load record %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domrec.Record{}, domain.ErrRecordNotFound
	}
	rec, err := Parse(fields)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("parse record %s: %w", id, err)
	}
	return rec, nil
}

// FindSimilar returns records structurally related to ref, most recent
// first: same owner and category, and at least one of same field, same
// quality, or an overlapping tag. The reference itself is excluded.
// Returns domain.ErrIndexUnavailable when the index does not exist.
func (r *Repo) FindSimilar(ctx context.Context, ref *domrec.Record, limit int) ([]domrec.Record, error) {
	filter := db.Filter{
		All: []db.TagClause{
			{Field: fieldOwnerID, Values: []string{ref.OwnerID()}},
			{Field: fieldCategory, Values: []string{string(ref.Category())}},
		},
		None: []db.TagClause{
			{Field: fieldID, Values: []string{ref.ID()}},
		},
	}

	any := []db.TagClause{
		{Field: fieldQuality, Values: []string{string(ref.Outcome().Quality)}},
	}
	if ref.FieldID() != "" {
		any = append(any, db.TagClause{Field: fieldFieldID, Values: []string{ref.FieldID()}})
	}
	if tags := ref.OverlapTags(); len(tags) > 0 {
		any = append(any, db.TagClause{Field: fieldTags, Values: tags})
	}
	filter.Any = any

	sr, err := r.store.SearchSorted(ctx, &db.SortedQuery{
		Index:  r.IndexName(),
		Filter: filter,
		SortBy: fieldDate,
		Desc:   true,
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("find similar to %s: %w", ref.ID(), domain.ErrIndexUnavailable)
		}
		return nil, fmt.Errorf("find similar to %s: %w", ref.ID(), err)
	}

	records := make([]domrec.Record, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		rec, err := Parse(entry.Fields)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ScanSimilar is the index-free variant of FindSimilar: full scan with the
// structural predicate applied in-process, most recent first.
func (r *Repo) ScanSimilar(ctx context.Context, ref *domrec.Record, limit int) ([]domrec.Record, error) {
	records, err := r.scanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan similar to %s: %w", ref.ID(), err)
	}

	matched := make([]domrec.Record, 0, limit)
	for i := range records {
		if domrec.Similar(ref, &records[i]) {
			matched = append(matched, records[i])
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date().After(matched[j].Date())
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// ScanSubstring is the keyword fallback path: a full scan matching needle
// as a case-insensitive substring of description, notes, or search text,
// restricted by scope. Order is insertion order, not relevance.
func (r *Repo) ScanSubstring(ctx context.Context, scope query.Scope, needle string, limit int) ([]domrec.Record, error) {
	records, err := r.scanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("substring scan: %w", err)
	}

	lower := strings.ToLower(needle)
	matched := make([]domrec.Record, 0, limit)
	for i := range records {
		rec := &records[i]
		if !scope.Matches(rec) {
			continue
		}
		if !containsFold(rec.Description(), lower) &&
			!containsFold(rec.Notes(), lower) &&
			!containsFold(rec.SearchText(), lower) {
			continue
		}
		matched = append(matched, records[i])
		if len(matched) >= limit {
			break
		}
	}
	return matched, nil
}

func (r *Repo) scanAll(ctx context.Context) ([]domrec.Record, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix()+"*")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, err
	}

	records := make([]domrec.Record, 0, len(hashes))
	for _, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		rec, err := Parse(fields)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}
