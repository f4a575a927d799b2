package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
	"github.com/kirillkom/entity-tree-rag/internal/core/prompts"
)

// EntityResolver asks the model for the primary entity named in a question.
// The name is not checked against the store here.
type EntityResolver struct {
	generator ports.TextGenerator
	timeout   time.Duration
}

func NewEntityResolver(generator ports.TextGenerator, limits domain.PipelineLimits) *EntityResolver {
	limits = normalizeLimits(limits)
	return &EntityResolver{generator: generator, timeout: limits.ModelCallTimeout}
}

func (r *EntityResolver) Resolve(ctx context.Context, question string) (string, error) {
	raw, err := generate(ctx, r.generator, r.timeout, prompts.EntityName(question))
	if err != nil {
		return "", domain.NewStageError(StageResolve, "", err)
	}

	name := strings.TrimSpace(raw)
	if name == "" {
		return "", domain.NewStageError(StageResolve, "", domain.WrapError(
			domain.ErrModelCall,
			"parse entity name",
			fmt.Errorf("model returned an empty entity name"),
		))
	}

	slog.Debug("root_entity_resolved", "entity", name)
	return name, nil
}
