package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
)

// TreeExpander walks parent->child edges breadth-first from a root entity.
// The visited set guarantees termination on cyclic data; MaxTreeEntities only bounds result size.
type TreeExpander struct {
	relations   ports.EntityRelations
	timeout     time.Duration
	maxEntities int
	observer    ports.PipelineObserver
}

func NewTreeExpander(relations ports.EntityRelations, limits domain.PipelineLimits, observer ports.PipelineObserver) *TreeExpander {
	limits = normalizeLimits(limits)
	return &TreeExpander{
		relations:   relations,
		timeout:     limits.StoreCallTimeout,
		maxEntities: limits.MaxTreeEntities,
		observer:    observerOrNoop(observer),
	}
}

// Expand returns the canonical root and every discovered entity in discovery order, root first.
// A root without children, or unknown to the store, yields a one-element result.
func (e *TreeExpander) Expand(ctx context.Context, root string) (string, []string, error) {
	root = domain.CanonicalEntityName(root)
	if root == "" {
		return "", nil, domain.NewStageError(StageExpand, "", domain.WrapError(
			domain.ErrInvalidInput, "expand tree", fmt.Errorf("root entity is empty"),
		))
	}

	visited := map[string]struct{}{root: {}}
	ordered := []string{root}
	queue := []string{root}
	truncated := false

walk:
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return "", nil, domain.NewStageError(StageExpand, queue[0], err)
		}

		current := queue[0]
		queue = queue[1:]

		children, err := withTimeout(ctx, e.timeout, func(callCtx context.Context) ([]string, error) {
			return e.relations.ChildEntities(callCtx, current)
		})
		if err != nil {
			if current == root {
				return "", nil, domain.NewStageError(StageExpand, current, storeError("child entities", err))
			}
			slog.Warn("child_lookup_degraded", "entity", current, "error", err)
			e.observer.ObserveDegraded(StageExpand)
			continue
		}

		for _, child := range children {
			name := domain.CanonicalEntityName(child)
			if name == "" {
				continue
			}
			if _, seen := visited[name]; seen {
				continue
			}
			if len(ordered) >= e.maxEntities {
				truncated = true
				break walk
			}
			visited[name] = struct{}{}
			ordered = append(ordered, name)
			queue = append(queue, name)
		}
	}

	if truncated {
		slog.Warn("tree_truncated", "root", root, "max_entities", e.maxEntities)
	}
	if len(ordered) == 1 {
		slog.Debug("tree_single_node", "root", root)
	}
	e.observer.ObserveTreeSize(len(ordered))
	slog.Debug("tree_expanded", "root", root, "entities", len(ordered))
	return root, ordered, nil
}
