package search

import (
	"context"

	"github.com/kailas-cloud/agridex/internal/domain/record"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
	"github.com/kailas-cloud/agridex/internal/domain/search/result"
)

// recordStore is the record persistence surface the coordinator needs (ISP).
type recordStore interface {
	Get(ctx context.Context, id string) (record.Record, error)
	FindSimilar(ctx context.Context, ref *record.Record, limit int) ([]record.Record, error)
	ScanSimilar(ctx context.Context, ref *record.Record, limit int) ([]record.Record, error)
	ScanSubstring(ctx context.Context, scope query.Scope, needle string, limit int) ([]record.Record, error)
}

// indexSearcher runs the two indexed retrieval channels.
type indexSearcher interface {
	SearchKeyword(ctx context.Context, scope query.Scope, text string, limit int) ([]result.Hit, error)
	SearchVector(ctx context.Context, scope query.Scope, vector []float32, k int) ([]result.Hit, error)
}
