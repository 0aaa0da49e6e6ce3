// Package search coordinates hybrid retrieval: keyword and vector channels
// fan out concurrently, fuse with RRF, and degrade per channel policy.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/agridex/internal/domain"
	"github.com/kailas-cloud/agridex/internal/domain/normalize"
	"github.com/kailas-cloud/agridex/internal/domain/record"
	"github.com/kailas-cloud/agridex/internal/domain/search/method"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
	"github.com/kailas-cloud/agridex/internal/domain/search/result"
	"github.com/kailas-cloud/agridex/internal/logger"
	"github.com/kailas-cloud/agridex/internal/metrics"
)

// Config tunes the retrieval channels and fusion.
type Config struct {
	RRFK                int
	OverfetchFactor     int
	CandidateMultiplier int
	CandidateCeiling    int
	KeywordTimeout      time.Duration
	SimilarLimit        int
}

// Result is a fused, truncated response with its effective method label.
type Result struct {
	Hits   []result.Hit
	Method method.Method
}

// Service is the hybrid search coordinator.
type Service struct {
	records       recordStore
	index         indexSearcher
	queryEmbedder domain.Embedder
	cfg           Config
}

// New creates a Service. queryEmbedder must be bound to the query task type;
// it can be nil, which disables the vector channel entirely.
func New(records recordStore, index indexSearcher, queryEmbedder domain.Embedder, cfg Config) *Service {
	return &Service{records: records, index: index, queryEmbedder: queryEmbedder, cfg: cfg}
}

// Search runs both retrieval channels concurrently, fuses their ranked
// lists, and truncates to the query limit. An empty result is a valid
// outcome, not an error; only a hard keyword failure aborts the call.
func (s *Service) Search(ctx context.Context, q query.Query) (Result, error) {
	log := logger.FromContext(ctx)

	var keywordHits, vectorHits []result.Hit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.keywordChannel(gctx, q, log)
		if err != nil {
			return err
		}
		keywordHits = hits
		return nil
	})
	g.Go(func() error {
		vectorHits = s.vectorChannel(gctx, q, log)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}

	fused := fuseRRF(keywordHits, vectorHits, s.cfg.RRFK)
	if len(fused) > q.Limit() {
		fused = fused[:q.Limit()]
	}

	m := method.Select(len(keywordHits), len(vectorHits))
	metrics.SearchRequestsTotal.WithLabelValues(string(m)).Inc()

	log.Debug("Search completed",
		zap.String("method", string(m)),
		zap.Int("keyword_hits", len(keywordHits)),
		zap.Int("vector_hits", len(vectorHits)),
		zap.Int("returned", len(fused)),
	)

	return Result{Hits: fused, Method: m}, nil
}

// keywordChannel runs the lexical channel with its own timeout. Policy:
// index absence falls back to a substring scan, a timeout degrades to an
// empty contribution, any other error is a hard failure.
func (s *Service) keywordChannel(ctx context.Context, q query.Query, log *zap.Logger) ([]result.Hit, error) {
	kctx := ctx
	if s.cfg.KeywordTimeout > 0 {
		var cancel context.CancelFunc
		kctx, cancel = context.WithTimeout(ctx, s.cfg.KeywordTimeout)
		defer cancel()
	}

	overfetch := q.Limit() * s.cfg.OverfetchFactor
	hits, err := s.index.SearchKeyword(kctx, q.Scope(), q.Text(), overfetch)
	switch {
	case err == nil:
		return hits, nil

	case errors.Is(err, domain.ErrIndexUnavailable):
		metrics.SearchDegradationsTotal.WithLabelValues("keyword", "index_missing").Inc()
		log.Warn("Keyword index missing, falling back to substring scan", zap.Error(err))
		records, scanErr := s.records.ScanSubstring(ctx, q.Scope(), q.Text(), overfetch)
		if scanErr != nil {
			return nil, fmt.Errorf("substring fallback: %w", scanErr)
		}
		fallback := make([]result.Hit, len(records))
		for i, rec := range records {
			fallback[i] = result.New(rec, 0)
		}
		return fallback, nil

	case errors.Is(err, context.DeadlineExceeded):
		metrics.SearchDegradationsTotal.WithLabelValues("keyword", "timeout").Inc()
		log.Warn("Keyword search timed out", zap.Error(err))
		return nil, nil

	default:
		return nil, fmt.Errorf("keyword channel: %w", err)
	}
}

// vectorChannel runs the semantic channel. It is a best-effort enhancement:
// every failure, embedding included, degrades to an empty contribution.
func (s *Service) vectorChannel(ctx context.Context, q query.Query, log *zap.Logger) []result.Hit {
	if s.queryEmbedder == nil {
		return nil
	}

	text := normalize.Text(q.Text())
	if text == "" {
		return nil
	}

	emb, err := s.queryEmbedder.Embed(ctx, text)
	if err != nil {
		metrics.SearchDegradationsTotal.WithLabelValues("vector", degradationReason(err)).Inc()
		log.Warn("Query embedding failed, skipping vector channel", zap.Error(err))
		return nil
	}

	k := min(q.Limit()*s.cfg.CandidateMultiplier, s.cfg.CandidateCeiling)
	hits, err := s.index.SearchVector(ctx, q.Scope(), emb.Embedding, k)
	if err != nil {
		metrics.SearchDegradationsTotal.WithLabelValues("vector", degradationReason(err)).Inc()
		log.Warn("Vector search failed, skipping vector channel", zap.Error(err))
		return nil
	}
	if len(hits) > q.Limit() {
		hits = hits[:q.Limit()]
	}
	return hits
}

// FindSimilar returns records structurally related to the owner's reference
// record, most recent first. Works without embeddings: the indexed path
// falls back to a full scan when the index is absent.
func (s *Service) FindSimilar(ctx context.Context, ownerID, recordID string, limit int) ([]record.Record, error) {
	if limit <= 0 {
		limit = s.cfg.SimilarLimit
	}

	ref, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("similar reference: %w", err)
	}
	// Records of other owners are indistinguishable from absent ones.
	if ref.OwnerID() != ownerID {
		return nil, domain.ErrRecordNotFound
	}

	records, err := s.records.FindSimilar(ctx, &ref, limit)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			return nil, fmt.Errorf("find similar: %w", err)
		}
		metrics.SearchDegradationsTotal.WithLabelValues("keyword", "index_missing").Inc()
		logger.FromContext(ctx).Warn("Record index missing, scanning for similar records", zap.Error(err))
		records, err = s.records.ScanSimilar(ctx, &ref, limit)
		if err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
	}
	return records, nil
}

func degradationReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return "index_missing"
	default:
		return "upstream"
	}
}
