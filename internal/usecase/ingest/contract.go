package ingest

import (
	"context"

	"github.com/kailas-cloud/agridex/internal/domain/knowledge"
	"github.com/kailas-cloud/agridex/internal/domain/record"
)

// recordStore persists activity records (ISP).
type recordStore interface {
	Insert(ctx context.Context, rec *record.Record) error
}

// knowledgeStore persists synthesized knowledge entries.
type knowledgeStore interface {
	Insert(ctx context.Context, e *knowledge.Entry) error
}

// similarFinder recommends structurally related prior records.
type similarFinder interface {
	FindSimilar(ctx context.Context, ownerID, recordID string, limit int) ([]record.Record, error)
}
