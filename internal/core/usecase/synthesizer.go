package usecase

import (
	"context"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
	"github.com/kirillkom/entity-tree-rag/internal/core/prompts"
)

// TreeSynthesizer merges the role-tagged summaries into one answer. The question is not re-supplied.
type TreeSynthesizer struct {
	generator ports.TextGenerator
	timeout   time.Duration
}

func NewTreeSynthesizer(generator ports.TextGenerator, limits domain.PipelineLimits) *TreeSynthesizer {
	limits = normalizeLimits(limits)
	return &TreeSynthesizer{generator: generator, timeout: limits.ModelCallTimeout}
}

func (s *TreeSynthesizer) Synthesize(ctx context.Context, tree domain.TreeContext) (string, error) {
	text, err := generate(ctx, s.generator, s.timeout, prompts.TreeMerge(tree.String()))
	if err != nil {
		root := ""
		if len(tree) > 0 {
			root = tree[0].Entity
		}
		return "", domain.NewStageError(StageSynthesize, root, err)
	}
	return text, nil
}
