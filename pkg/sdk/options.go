package agridex

import (
	"log/slog"
	"time"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	docEmbedder   Embedder
	queryEmbedder Embedder

	embeddingModel string

	keyPrefix        string
	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int

	rrfK                int
	overfetchFactor     int
	candidateMultiplier int
	candidateCeiling    int
	keywordTimeout      time.Duration
	similarLimit        int

	logger *slog.Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		keyPrefix:           "agridex:",
		vectorDimensions:    1536,
		rrfK:                60,
		overfetchFactor:     2,
		candidateMultiplier: 5,
		candidateCeiling:    1000,
		keywordTimeout:      2 * time.Second,
		similarLimit:        3,
	}
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets one embedding provider for both tasks (documents at
// ingestion time and free-text queries at search time).
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.docEmbedder = e
		c.queryEmbedder = e
	})
}

// WithTaskEmbedders sets separate providers per task, for backends that
// carry native task types or asymmetric instruction prefixes.
func WithTaskEmbedders(doc, query Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.docEmbedder = doc
		c.queryEmbedder = query
	})
}

// WithEmbeddingModel records the model name stored alongside each vector.
func WithEmbeddingModel(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = name
	})
}

// WithKeyPrefix sets the storage key prefix. Default: "agridex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithVectorDimensions sets the vector dimension of the record index.
// Default: 1536. Must match the configured embedder's output.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithRRFK sets the reciprocal rank fusion constant. Default: 60.
func WithRRFK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rrfK = k
	})
}

// WithKeywordTimeout bounds the keyword channel per search. A timed-out
// channel contributes nothing instead of failing the search. Default: 2s.
func WithKeywordTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.keywordTimeout = d
	})
}

// WithSimilarLimit sets the default result count for FindSimilar and the
// related-record lookup during ingestion. Default: 3.
func WithSimilarLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.similarLimit = n
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
