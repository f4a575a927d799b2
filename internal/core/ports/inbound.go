package ports

import (
	"context"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for one routed pipeline invocation.
type QuestionAnswerer interface {
	Invoke(ctx context.Context, question string) (*domain.PipelineState, error)
}
