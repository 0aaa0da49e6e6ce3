// Package ingest implements the knowledge accumulation pipeline: persist an
// activity record, derive learnings and recommendations, and synthesize a
// durable knowledge entry from high-quality outcomes.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/agridex/internal/domain"
	"github.com/kailas-cloud/agridex/internal/domain/knowledge"
	"github.com/kailas-cloud/agridex/internal/domain/record"
	"github.com/kailas-cloud/agridex/internal/logger"
	"github.com/kailas-cloud/agridex/internal/metrics"
)

// Knowledge confidence tiers by outcome quality.
const (
	confidenceExcellent = 0.9
	confidenceGood      = 0.7
)

// Config tunes the pipeline.
type Config struct {
	EmbeddingModel string
	SimilarLimit   int
}

// Input is the activity payload accepted by Ingest. The record id is
// assigned by the pipeline, never by the caller.
type Input struct {
	OwnerID     string
	FarmID      string
	FieldID     string
	Date        time.Time
	Category    record.Category
	Description string
	Materials   []record.Material
	Weather     *record.Weather
	DurationMin int
	Workers     int
	Equipment   []string
	Notes       string
	Outcome     record.Outcome
}

// RelatedRecord summarizes a structurally similar prior record.
type RelatedRecord struct {
	RecordID   string
	Date       time.Time
	Similarity string
}

// Result is the outcome of one ingestion.
type Result struct {
	RecordID        string
	Learnings       []string
	Recommendations []string
	Related         []RelatedRecord
	KnowledgeID     string
}

// Service is the ingestion pipeline.
type Service struct {
	records     recordStore
	knowledge   knowledgeStore
	similar     similarFinder
	docEmbedder domain.Embedder
	cfg         Config
}

// New creates a Service. docEmbedder must be bound to the document task
// type; it can be nil, which persists all records without vectors.
func New(records recordStore, know knowledgeStore, similar similarFinder, docEmbedder domain.Embedder, cfg Config) *Service {
	return &Service{records: records, knowledge: know, similar: similar, docEmbedder: docEmbedder, cfg: cfg}
}

// Ingest runs the pipeline. Persistence failures are fatal; an embedding
// failure is recoverable and the record is stored without a vector.
func (s *Service) Ingest(ctx context.Context, in Input) (Result, error) {
	log := logger.FromContext(ctx)
	now := time.Now().UTC()

	rec, err := record.New(record.Params{
		ID:          uuid.NewString(),
		OwnerID:     in.OwnerID,
		FieldID:     in.FieldID,
		Date:        in.Date,
		Category:    in.Category,
		Description: in.Description,
		Materials:   in.Materials,
		Weather:     in.Weather,
		DurationMin: in.DurationMin,
		Workers:     in.Workers,
		Equipment:   in.Equipment,
		Notes:       in.Notes,
		Outcome:     in.Outcome,
		CreatedAt:   now,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	rec = s.embedDocument(ctx, rec, now, log)

	if err := s.records.Insert(ctx, &rec); err != nil {
		return Result{}, err
	}

	res := Result{
		RecordID:        rec.ID(),
		Learnings:       deriveLearnings(&rec),
		Recommendations: deriveRecommendations(&rec),
		Related:         s.relatedRecords(ctx, &rec, log),
	}

	if rec.Outcome().Quality.IsPositive() {
		entry, err := s.synthesizeKnowledge(ctx, in.FarmID, &rec, now)
		if err != nil {
			return Result{}, err
		}
		res.KnowledgeID = entry.ID()
		metrics.KnowledgeEntriesTotal.Inc()
		log.Info("Knowledge entry synthesized",
			zap.String("knowledge_id", entry.ID()),
			zap.String("record_id", rec.ID()),
			zap.Float64("confidence", entry.Confidence()),
		)
	}

	return res, nil
}

// embedDocument attaches a document-task-type vector when the provider is
// reachable. Ingestion never blocks on embedding availability.
func (s *Service) embedDocument(ctx context.Context, rec record.Record, now time.Time, log *zap.Logger) record.Record {
	if s.docEmbedder == nil || rec.SearchText() == "" {
		return rec
	}
	res, err := s.docEmbedder.Embed(ctx, rec.SearchText())
	if err != nil {
		log.Warn("Embedding failed, persisting record without vector",
			zap.String("record_id", rec.ID()),
			zap.Error(err),
		)
		return rec
	}
	return rec.WithEmbedding(res.Embedding, s.cfg.EmbeddingModel, len(res.Embedding), now)
}

// relatedRecords asks the recommender for similar prior records. Failures
// are non-fatal; the ingestion result simply carries no related records.
func (s *Service) relatedRecords(ctx context.Context, rec *record.Record, log *zap.Logger) []RelatedRecord {
	records, err := s.similar.FindSimilar(ctx, rec.OwnerID(), rec.ID(), s.cfg.SimilarLimit)
	if err != nil {
		log.Warn("Related record lookup failed",
			zap.String("record_id", rec.ID()),
			zap.Error(err),
		)
		return nil
	}

	out := make([]RelatedRecord, len(records))
	for i := range records {
		out[i] = RelatedRecord{
			RecordID:   records[i].ID(),
			Date:       records[i].Date(),
			Similarity: fmt.Sprintf("same %s work", records[i].Category()),
		}
	}
	return out
}

func (s *Service) synthesizeKnowledge(ctx context.Context, farmID string, rec *record.Record, now time.Time) (knowledge.Entry, error) {
	confidence := confidenceGood
	if rec.Outcome().Quality == record.Excellent {
		confidence = confidenceExcellent
	}
	if farmID == "" {
		farmID = fallbackFarmID(rec.OwnerID())
	}

	entry, err := knowledge.New(
		uuid.NewString(),
		farmID,
		rec.OwnerID(),
		fmt.Sprintf("Successful %s work", rec.Category()),
		fmt.Sprintf("%s - result: %s", rec.Description(), rec.Outcome().Quality),
		knowledge.Experience,
		[]string{rec.ID()},
		confidence,
		rec.Tags(),
		now,
	)
	if err != nil {
		return knowledge.Entry{}, fmt.Errorf("synthesize knowledge for %s: %w", rec.ID(), err)
	}
	if err := s.knowledge.Insert(ctx, &entry); err != nil {
		return knowledge.Entry{}, err
	}
	return entry, nil
}

// fallbackFarmID derives a stable farm id from the owner when the caller
// did not supply one.
func fallbackFarmID(ownerID string) string {
	suffix := ownerID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return "farm_" + suffix
}
