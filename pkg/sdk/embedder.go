package agridex

import "context"

// Embedder converts text to vector embeddings. Optional: without one the
// vector search channel is disabled and records are stored unvectorized.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
