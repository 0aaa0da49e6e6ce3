package domain

import (
	"context"
	"fmt"
)

// TaskType selects the embedding optimization target. Document-side and
// query-side vectors are produced differently and must not be interchanged.
type TaskType string

const (
	// TaskDocument is used when embedding record text at ingestion time.
	TaskDocument TaskType = "RETRIEVAL_DOCUMENT"
	// TaskQuery is used when embedding free-text search queries.
	TaskQuery TaskType = "RETRIEVAL_QUERY"
)

// SupportedDimensions are the output sizes the embedding models accept.
var SupportedDimensions = []int{768, 1536, 3072}

// ValidDimensions reports whether dim is an accepted embedding size.
func ValidDimensions(dim int) bool {
	for _, d := range SupportedDimensions {
		if d == dim {
			return true
		}
	}
	return false
}

// Embedder is the shared text vectorization contract between layers.
// An Embedder instance is bound to a single task type at construction.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// InstructionEmbedder prepends instruction text before embedding. Providers
// without native task types express document/query asymmetry this way.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends the instruction and delegates to the inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports checks.
func (e *InstructionEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
