package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/agridex/internal/config"
	dbRedis "github.com/kailas-cloud/agridex/internal/db/redis"
	"github.com/kailas-cloud/agridex/internal/domain"
	logpkg "github.com/kailas-cloud/agridex/internal/logger"
	"github.com/kailas-cloud/agridex/internal/metrics"
	knowledgerepo "github.com/kailas-cloud/agridex/internal/repository/knowledge"
	recordrepo "github.com/kailas-cloud/agridex/internal/repository/record"
	searchrepo "github.com/kailas-cloud/agridex/internal/repository/search"
	chiTransport "github.com/kailas-cloud/agridex/internal/transport/chi"
	geminiEmb "github.com/kailas-cloud/agridex/internal/transport/gemini"
	openaiEmb "github.com/kailas-cloud/agridex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/agridex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/agridex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/agridex/internal/usecase/ingest"
	knowledgeuc "github.com/kailas-cloud/agridex/internal/usecase/knowledge"
	searchuc "github.com/kailas-cloud/agridex/internal/usecase/search"
	"github.com/kailas-cloud/agridex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting agridex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Build the embedder chain: one instance per task type, composition root
	docEmbedder, err := buildEmbedder(ctx, cfg.Embedding, domain.TaskDocument, logger)
	if err != nil {
		logger.Fatal("Failed to create document embedder", zap.Error(err))
	}
	queryEmbedder, err := buildEmbedder(ctx, cfg.Embedding, domain.TaskQuery, logger)
	if err != nil {
		logger.Fatal("Failed to create query embedder", zap.Error(err))
	}
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	recordRepo := recordrepo.New(store, cfg.Storage.KeyPrefix, recordrepo.IndexConfig{
		VectorDim:   cfg.Embedding.Dimensions,
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	knowledgeRepo := knowledgerepo.New(store, cfg.Storage.KeyPrefix)
	searchRepo := searchrepo.New(store, recordRepo.IndexName())

	if err := recordRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create record index", zap.Error(err))
	}
	if err := knowledgeRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create knowledge index", zap.Error(err))
	}

	// Use case services
	searchSvc := searchuc.New(recordRepo, searchRepo, queryEmbedder, searchuc.Config{
		RRFK:                cfg.Search.RRFK,
		OverfetchFactor:     cfg.Search.OverfetchFactor,
		CandidateMultiplier: cfg.Search.CandidateMultiplier,
		CandidateCeiling:    cfg.Search.CandidateCeiling,
		KeywordTimeout:      time.Duration(cfg.Search.KeywordTimeoutSec) * time.Second,
		SimilarLimit:        cfg.Knowledge.SimilarLimit,
	})
	ingestSvc := ingestuc.New(recordRepo, knowledgeRepo, searchSvc, docEmbedder, ingestuc.Config{
		EmbeddingModel: cfg.Embedding.Model,
		SimilarLimit:   cfg.Knowledge.SimilarLimit,
	})
	knowledgeSvc := knowledgeuc.New(knowledgeRepo)
	healthSvc := healthuc.New(store, store, recordRepo.IndexName(), newEmbeddingHealthChecker(docEmbedder))

	server := chiTransport.NewServer(searchSvc, ingestSvc, knowledgeSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain for one task type:
// provider -> timeout -> instrumented (-> instruction for openai).
func buildEmbedder(
	ctx context.Context,
	cfg config.EmbeddingConfig,
	taskType domain.TaskType,
	logger *zap.Logger,
) (domain.Embedder, error) {
	var embedder domain.Embedder

	switch cfg.Provider {
	case "gemini":
		base, err := geminiEmb.NewEmbedder(ctx, &geminiEmb.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			TaskType:   taskType,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		embedder = base
	case "openai":
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	embedder = newTimeoutEmbedder(embedder, time.Duration(cfg.TimeoutSec)*time.Second)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// OpenAI-compatible models have no native task types; the asymmetry is
	// rendered as instruction prefixes instead.
	if cfg.Provider == "openai" {
		instruction := cfg.DocumentInstruction
		if taskType == domain.TaskQuery {
			instruction = cfg.QueryInstruction
		}
		if instruction != "" {
			return domain.NewInstructionEmbedder(embedder, instruction), nil
		}
	}

	return embedder, nil
}

// timeoutEmbedder bounds each embedding call with its own deadline so a
// slow provider cannot stall a search longer than the configured limit.
type timeoutEmbedder struct {
	inner   domain.Embedder
	timeout time.Duration
}

func newTimeoutEmbedder(inner domain.Embedder, timeout time.Duration) *timeoutEmbedder {
	return &timeoutEmbedder{inner: inner, timeout: timeout}
}

func (e *timeoutEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.inner.Embed(ctx, text)
}

// HealthCheck delegates to the inner provider when it supports checks.
func (e *timeoutEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
