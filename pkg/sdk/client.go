package agridex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dbRedis "github.com/kailas-cloud/agridex/internal/db/redis"
	"github.com/kailas-cloud/agridex/internal/domain"
	domknow "github.com/kailas-cloud/agridex/internal/domain/knowledge"
	"github.com/kailas-cloud/agridex/internal/domain/record"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
	knowledgerepo "github.com/kailas-cloud/agridex/internal/repository/knowledge"
	recordrepo "github.com/kailas-cloud/agridex/internal/repository/record"
	searchrepo "github.com/kailas-cloud/agridex/internal/repository/search"
	healthuc "github.com/kailas-cloud/agridex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/agridex/internal/usecase/ingest"
	knowledgeuc "github.com/kailas-cloud/agridex/internal/usecase/knowledge"
	searchuc "github.com/kailas-cloud/agridex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the agridex SDK entry point.
type Client struct {
	store     *dbRedis.Store
	searchSvc *searchuc.Service
	ingestSvc *ingestuc.Service
	knowSvc   *knowledgeuc.Service
	healthSvc *healthuc.Service
	logger    *slog.Logger
}

// New creates a Client and connects to the database. The provided context
// is used for the initial readiness check and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("agridex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("agridex: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("agridex: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store *dbRedis.Store, cfg *clientConfig) (*Client, error) {
	recordRepo := recordrepo.New(store, cfg.keyPrefix, recordrepo.IndexConfig{
		VectorDim:   cfg.vectorDimensions,
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFConstruct,
	})
	knowledgeRepo := knowledgerepo.New(store, cfg.keyPrefix)
	searchRepo := searchrepo.New(store, recordRepo.IndexName())

	if err := recordRepo.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("agridex: create record index: %w", err)
	}
	if err := knowledgeRepo.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("agridex: create knowledge index: %w", err)
	}

	var docEmb, queryEmb domain.Embedder
	if cfg.docEmbedder != nil {
		docEmb = &embedderAdapter{inner: cfg.docEmbedder}
	}
	if cfg.queryEmbedder != nil {
		queryEmb = &embedderAdapter{inner: cfg.queryEmbedder}
	}

	searchSvc := searchuc.New(recordRepo, searchRepo, queryEmb, searchuc.Config{
		RRFK:                cfg.rrfK,
		OverfetchFactor:     cfg.overfetchFactor,
		CandidateMultiplier: cfg.candidateMultiplier,
		CandidateCeiling:    cfg.candidateCeiling,
		KeywordTimeout:      cfg.keywordTimeout,
		SimilarLimit:        cfg.similarLimit,
	})
	ingestSvc := ingestuc.New(recordRepo, knowledgeRepo, searchSvc, docEmb, ingestuc.Config{
		EmbeddingModel: cfg.embeddingModel,
		SimilarLimit:   cfg.similarLimit,
	})
	knowSvc := knowledgeuc.New(knowledgeRepo)
	healthSvc := healthuc.New(store, store, recordRepo.IndexName(), nil)

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		ingestSvc: ingestSvc,
		knowSvc:   knowSvc,
		healthSvc: healthSvc,
		logger:    cfg.logger,
	}, nil
}

// Close releases the database connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// HealthReport aggregates per-component health checks.
type HealthReport struct {
	Status string
	Checks map[string]string
}

// Health runs component health checks. A missing record index reports the
// engine as degraded, not down.
func (c *Client) Health(ctx context.Context) HealthReport {
	rep := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(rep.Checks))
	for name, res := range rep.Checks {
		checks[name] = string(res)
	}
	return HealthReport{Status: string(rep.Status), Checks: checks}
}

// Search runs hybrid retrieval over the caller's records.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	start := time.Now()

	scope, err := query.NewScope(
		req.OwnerID, req.FieldID,
		record.Category(req.Category), record.Quality(req.Quality),
		req.DateFrom, req.DateTo,
	)
	if err != nil {
		return SearchResponse{}, err
	}
	q, err := query.New(req.Query, scope, req.Limit)
	if err != nil {
		return SearchResponse{}, err
	}

	res, err := c.searchSvc.Search(ctx, q)
	c.observe("search", start, err)
	if err != nil {
		return SearchResponse{}, err
	}

	hits := make([]SearchHit, len(res.Hits))
	for i := range res.Hits {
		hits[i] = SearchHit{
			Record: fromDomainRecord(res.Hits[i].Record()),
			Score:  res.Hits[i].Score(),
		}
	}
	return SearchResponse{Hits: hits, Method: string(res.Method)}, nil
}

// FindSimilar returns records structurally similar to the given one.
// limit <= 0 applies the configured default.
func (c *Client) FindSimilar(ctx context.Context, ownerID, recordID string, limit int) ([]Record, error) {
	start := time.Now()

	recs, err := c.searchSvc.FindSimilar(ctx, ownerID, recordID, limit)
	c.observe("find_similar", start, err)
	if err != nil {
		return nil, err
	}

	out := make([]Record, len(recs))
	for i := range recs {
		out[i] = fromDomainRecord(recs[i])
	}
	return out, nil
}

// Ingest persists one activity record and runs the knowledge accumulation
// pipeline over it.
func (c *Client) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	start := time.Now()

	res, err := c.ingestSvc.Ingest(ctx, ingestuc.Input{
		OwnerID:     in.OwnerID,
		FarmID:      in.FarmID,
		FieldID:     in.FieldID,
		Date:        in.Date,
		Category:    record.Category(in.Category),
		Description: in.Description,
		Materials:   toDomainMaterials(in.Materials),
		Weather:     toDomainWeather(in.Weather),
		DurationMin: in.DurationMin,
		Workers:     in.Workers,
		Equipment:   in.Equipment,
		Notes:       in.Notes,
		Outcome:     toDomainOutcome(in.Outcome),
	})
	c.observe("ingest", start, err)
	if err != nil {
		return IngestResult{}, err
	}

	related := make([]RelatedRecord, len(res.Related))
	for i, r := range res.Related {
		related[i] = RelatedRecord{RecordID: r.RecordID, Date: r.Date, Similarity: r.Similarity}
	}
	return IngestResult{
		RecordID:        res.RecordID,
		Learnings:       res.Learnings,
		Recommendations: res.Recommendations,
		Related:         related,
		KnowledgeID:     res.KnowledgeID,
	}, nil
}

// SearchKnowledge queries accumulated knowledge entries.
func (c *Client) SearchKnowledge(ctx context.Context, q KnowledgeQuery) (KnowledgeResult, error) {
	start := time.Now()

	res, err := c.knowSvc.Search(ctx, knowledgeuc.Query{
		OwnerID:       q.OwnerID,
		FarmID:        q.FarmID,
		Category:      domknow.Category(q.Category),
		Text:          q.Query,
		MinConfidence: q.MinConfidence,
		Limit:         q.Limit,
	})
	c.observe("knowledge_search", start, err)
	if err != nil {
		return KnowledgeResult{}, err
	}

	entries := make([]KnowledgeEntry, len(res.Entries))
	for i := range res.Entries {
		entries[i] = fromDomainKnowledge(res.Entries[i])
	}
	categories := make(map[string]int, len(res.Categories))
	for cat, n := range res.Categories {
		categories[string(cat)] = n
	}
	return KnowledgeResult{
		Entries:       entries,
		Total:         res.Total,
		AvgConfidence: res.AvgConfidence,
		Categories:    categories,
	}, nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.logger == nil {
		return
	}
	dur := time.Since(start)
	if err != nil {
		c.logger.Warn("operation failed", "op", op, "duration", dur, "error", err)
		return
	}
	c.logger.Debug("operation completed", "op", op, "duration", dur)
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
