// Package knowledge serves accumulated knowledge back to the front end and
// tracks how often entries are reused.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agridex/internal/domain"
	domknow "github.com/kailas-cloud/agridex/internal/domain/knowledge"
	"github.com/kailas-cloud/agridex/internal/domain/normalize"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
	"github.com/kailas-cloud/agridex/internal/logger"
	knowrepo "github.com/kailas-cloud/agridex/internal/repository/knowledge"
)

// DefaultMinConfidence is the floor applied when the caller does not set one.
const DefaultMinConfidence = 0.5

// store is the knowledge persistence surface this service needs (ISP).
type store interface {
	Search(ctx context.Context, q knowrepo.SearchQuery) ([]domknow.Entry, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

// Query is a knowledge search request.
type Query struct {
	OwnerID       string
	FarmID        string
	Category      domknow.Category
	Text          string
	MinConfidence float64
	Limit         int
}

// Result carries the matched entries plus aggregate metadata.
type Result struct {
	Entries       []domknow.Entry
	Total         int
	AvgConfidence float64
	Categories    map[domknow.Category]int
}

// Service answers knowledge searches.
type Service struct {
	store store
}

// New creates a Service.
func New(s store) *Service {
	return &Service{store: s}
}

// Search returns the owner's knowledge entries matching the query text with
// confidence at or above the floor. Every surfaced entry has its usage
// counters touched. A missing index yields an empty result, not an error.
func (s *Service) Search(ctx context.Context, q Query) (Result, error) {
	log := logger.FromContext(ctx)

	if q.OwnerID == "" {
		return Result{}, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}
	if q.Category != "" && !q.Category.IsValid() {
		return Result{}, fmt.Errorf("%w: unknown knowledge category %q", domain.ErrInvalidInput, q.Category)
	}
	// The text search below has nothing to match against an empty query.
	if normalize.Text(q.Text) == "" {
		return Result{}, fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	if q.MinConfidence <= 0 {
		q.MinConfidence = DefaultMinConfidence
	}
	if q.Limit <= 0 {
		q.Limit = query.DefaultLimit
	}
	if q.Limit > query.MaxLimit {
		q.Limit = query.MaxLimit
	}

	entries, err := s.store.Search(ctx, knowrepo.SearchQuery{
		OwnerID:       q.OwnerID,
		FarmID:        q.FarmID,
		Category:      q.Category,
		Text:          q.Text,
		MinConfidence: q.MinConfidence,
		Limit:         q.Limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrIndexUnavailable) {
			log.Warn("Knowledge index missing, returning empty result", zap.Error(err))
			return Result{Categories: map[domknow.Category]int{}}, nil
		}
		return Result{}, fmt.Errorf("knowledge search: %w", err)
	}

	now := time.Now().UTC()
	for i := range entries {
		if err := s.store.Touch(ctx, entries[i].ID(), now); err != nil {
			log.Warn("Knowledge usage update failed",
				zap.String("knowledge_id", entries[i].ID()),
				zap.Error(err),
			)
		}
	}

	return summarize(entries), nil
}

func summarize(entries []domknow.Entry) Result {
	res := Result{
		Entries:    entries,
		Total:      len(entries),
		Categories: make(map[domknow.Category]int),
	}
	if len(entries) == 0 {
		return res
	}

	var sum float64
	for i := range entries {
		sum += entries[i].Confidence()
		res.Categories[entries[i].Category()]++
	}
	res.AvgConfidence = sum / float64(len(entries))
	return res
}
