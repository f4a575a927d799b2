package ports

import (
	"context"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

// TextGenerator is the generative model: fully rendered prompt in, text out.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EntityRelations lists the direct children of an entity in store order.
type EntityRelations interface {
	ChildEntities(ctx context.Context, entityName string) ([]string, error)
}

// EntityRecordStore reads structured entity records.
type EntityRecordStore interface {
	EntityRecords(ctx context.Context, entityName string) ([]domain.EntityRecord, error)
	PageReferences(ctx context.Context, entityNames []string) ([]domain.PageReference, error)
}

// DocumentSearcher runs a free-text or semantic search returning top-K documents.
type DocumentSearcher interface {
	SearchDocuments(ctx context.Context, query string, limit int) ([]domain.Document, error)
}

// Embedder builds query vectors for vector-backed search.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// PipelineObserver receives pipeline telemetry. Implementations must be safe for concurrent use.
type PipelineObserver interface {
	ObserveRoute(decision string)
	ObserveStage(stage string, duration time.Duration, err error)
	ObserveTreeSize(entities int)
	ObserveDegraded(stage string)
}
