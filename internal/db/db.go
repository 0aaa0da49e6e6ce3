package db

import (
	"context"
	"time"
)

// Store is the database facade. Consumers depend on the narrow
// sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes. All methods return
// ErrIndexNotFound when the target index does not exist, so callers can
// distinguish index absence from other failures.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchSorted(ctx context.Context, q *SortedQuery) (*SearchResult, error)
}

// IndexFieldType enumerates FT schema field types.
type IndexFieldType string

// Index field types.
const (
	IndexFieldTag     IndexFieldType = "tag"
	IndexFieldText    IndexFieldType = "text"
	IndexFieldNumeric IndexFieldType = "numeric"
	IndexFieldVector  IndexFieldType = "vector"
)

// IndexField is one field of an FT schema. Vector fields use HNSW with
// FLOAT32 cosine distance.
type IndexField struct {
	Name              string
	Type              IndexFieldType
	TagSeparator      string
	Sortable          bool
	VectorDim         int
	VectorM           int
	VectorEFConstruct int
}

// IndexDefinition describes an FT index over hash keys with a prefix.
type IndexDefinition struct {
	Name   string
	Prefix string
	Fields []IndexField
}
