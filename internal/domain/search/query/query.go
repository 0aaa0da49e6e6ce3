// Package query defines validated search queries and their scope filters.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/agridex/internal/domain"
	"github.com/kailas-cloud/agridex/internal/domain/record"
)

// Result-size limits.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Scope restricts a search to an owner's records, optionally narrowed by
// location, category, outcome quality, and a date range.
type Scope struct {
	ownerID  string
	fieldID  string
	category record.Category
	quality  record.Quality
	dateFrom time.Time
	dateTo   time.Time
}

// NewScope validates and creates a Scope. Owner is required; category and
// quality must be known values when set; a two-sided date range must be ordered.
func NewScope(
	ownerID, fieldID string,
	category record.Category, quality record.Quality,
	dateFrom, dateTo time.Time,
) (Scope, error) {
	if ownerID == "" {
		return Scope{}, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}
	if category != "" && !category.IsValid() {
		return Scope{}, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, category)
	}
	if quality != "" && !quality.IsValid() {
		return Scope{}, fmt.Errorf("%w: unknown quality %q", domain.ErrInvalidInput, quality)
	}
	if !dateFrom.IsZero() && !dateTo.IsZero() && dateFrom.After(dateTo) {
		return Scope{}, fmt.Errorf("%w: date range start is after end", domain.ErrInvalidInput)
	}
	return Scope{
		ownerID:  ownerID,
		fieldID:  fieldID,
		category: category,
		quality:  quality,
		dateFrom: dateFrom,
		dateTo:   dateTo,
	}, nil
}

// OwnerID returns the owning user identifier.
func (s Scope) OwnerID() string { return s.ownerID }

// FieldID returns the location filter (empty = any).
func (s Scope) FieldID() string { return s.fieldID }

// Category returns the category filter (empty = any).
func (s Scope) Category() record.Category { return s.category }

// Quality returns the outcome quality filter (empty = any).
func (s Scope) Quality() record.Quality { return s.quality }

// DateFrom returns the inclusive range start (zero = open).
func (s Scope) DateFrom() time.Time { return s.dateFrom }

// DateTo returns the inclusive range end (zero = open).
func (s Scope) DateTo() time.Time { return s.dateTo }

// Matches applies the scope in-process. The substring fallback path uses it
// to honor the same restrictions the indexed path would.
func (s Scope) Matches(r *record.Record) bool {
	if r.OwnerID() != s.ownerID {
		return false
	}
	if s.fieldID != "" && r.FieldID() != s.fieldID {
		return false
	}
	if s.category != "" && r.Category() != s.category {
		return false
	}
	if s.quality != "" && r.Outcome().Quality != s.quality {
		return false
	}
	if !s.dateFrom.IsZero() && r.Date().Before(s.dateFrom) {
		return false
	}
	if !s.dateTo.IsZero() && r.Date().After(s.dateTo) {
		return false
	}
	return true
}

// Query is a validated free-text search request.
type Query struct {
	text  string
	scope Scope
	limit int
}

// New validates and normalizes a search request.
// Limit defaults to DefaultLimit and is clamped to MaxLimit.
func New(text string, scope Scope, limit int) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{text: text, scope: scope, limit: limit}, nil
}

// Text returns the free-text query.
func (q *Query) Text() string { return q.text }

// Scope returns the scope filter.
func (q *Query) Scope() Scope { return q.scope }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }
