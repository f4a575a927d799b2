package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
	"github.com/kirillkom/entity-tree-rag/internal/core/prompts"
)

// Router classifies a question into the tree or general branch with one model call.
type Router struct {
	generator ports.TextGenerator
	timeout   time.Duration
	observer  ports.PipelineObserver
}

func NewRouter(generator ports.TextGenerator, limits domain.PipelineLimits, observer ports.PipelineObserver) *Router {
	limits = normalizeLimits(limits)
	return &Router{
		generator: generator,
		timeout:   limits.ModelCallTimeout,
		observer:  observerOrNoop(observer),
	}
}

func (r *Router) Route(ctx context.Context, question string) (domain.RouteDecision, error) {
	start := time.Now()
	raw, err := generate(ctx, r.generator, r.timeout, prompts.Router(question))
	if err != nil {
		r.observer.ObserveStage(StageRoute, time.Since(start), err)
		return "", domain.NewStageError(StageRoute, "", err)
	}

	decision, err := domain.ParseRouteDecision(raw)
	r.observer.ObserveStage(StageRoute, time.Since(start), err)
	if err != nil {
		slog.Warn("route_rejected", "raw", raw, "error", err)
		return "", domain.NewStageError(StageRoute, "", err)
	}

	r.observer.ObserveRoute(decision.String())
	slog.Debug("route_decision", "decision", decision.String(), "raw", raw)
	return decision, nil
}
