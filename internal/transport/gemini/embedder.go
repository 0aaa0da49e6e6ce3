// Package gemini is the embedding provider backed by the Gemini API. Task
// types are native here: RETRIEVAL_DOCUMENT and RETRIEVAL_QUERY vectors are
// produced by the model itself, no instruction prefixes needed.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/kailas-cloud/agridex/internal/domain"
)

// Embedder is a Gemini embedding provider bound to one task type.
type Embedder struct {
	client     *genai.Client
	model      string
	taskType   domain.TaskType
	dimensions int32
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	Model      string
	TaskType   domain.TaskType
	Dimensions int
}

// NewEmbedder creates a Gemini embedding provider.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Embedder{
		client:     client,
		model:      cfg.Model,
		taskType:   cfg.TaskType,
		dimensions: int32(cfg.Dimensions),
	}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	config := &genai.EmbedContentConfig{
		TaskType: string(e.taskType),
	}
	if e.dimensions > 0 {
		dim := e.dimensions
		config.OutputDimensionality = &dim
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), config)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("gemini embed: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrUpstreamUnavailable)
	}

	result := domain.EmbeddingResult{Embedding: resp.Embeddings[0].Values}
	if stats := resp.Embeddings[0].Statistics; stats != nil {
		result.PromptTokens = int(stats.TokenCount)
		result.TotalTokens = int(stats.TokenCount)
	}
	return result, nil
}

// HealthCheck verifies API availability by fetching the model metadata.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.Models.Get(ctx, e.model, nil); err != nil {
		return fmt.Errorf("gemini model lookup: %w", err)
	}
	return nil
}
