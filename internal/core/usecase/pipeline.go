package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smallnest/langgraphgo/graph"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

const (
	nodeRouter = "router"
	nodeTree   = "ragTree"
	nodeFlat   = "rag"
)

// Pipeline is the compiled router -> {ragTree | rag} -> END graph.
// The graph is immutable after construction; each Invoke gets its own state value.
type Pipeline struct {
	runnable *graph.StateRunnable[domain.PipelineState]
}

func NewPipeline(router *Router, tree *TreeAnswerUseCase, flat *FlatAnswerUseCase) (*Pipeline, error) {
	g := graph.NewStateGraph[domain.PipelineState]()

	g.AddNode(nodeRouter, "classify the question into tree or general", func(ctx context.Context, state domain.PipelineState) (domain.PipelineState, error) {
		decision, err := router.Route(ctx, state.Input)
		if err != nil {
			return state, err
		}
		state.Route = decision
		return state, nil
	})

	g.AddNode(nodeTree, "answer over the entity tree", func(ctx context.Context, state domain.PipelineState) (domain.PipelineState, error) {
		answer, err := tree.Answer(ctx, state.Input)
		if err != nil {
			return state, err
		}
		state.Output = answer.Text
		state.RootEntity = answer.RootEntity
		state.Entities = answer.Entities
		state.PDFPages = answer.PDFPages
		return state, nil
	})

	g.AddNode(nodeFlat, "answer from a flat semantic search", func(ctx context.Context, state domain.PipelineState) (domain.PipelineState, error) {
		text, err := flat.Answer(ctx, state.Input)
		if err != nil {
			return state, err
		}
		state.Output = text
		return state, nil
	})

	g.SetEntryPoint(nodeRouter)
	g.AddConditionalEdge(nodeRouter, func(_ context.Context, state domain.PipelineState) string {
		return branchFor(state.Route)
	})
	g.AddEdge(nodeTree, graph.END)
	g.AddEdge(nodeFlat, graph.END)

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile pipeline graph: %w", err)
	}
	return &Pipeline{runnable: runnable}, nil
}

// branchFor has no default branch: an empty name makes the graph fail the run.
func branchFor(decision domain.RouteDecision) string {
	switch decision {
	case domain.RouteTree:
		return nodeTree
	case domain.RouteGeneral:
		return nodeFlat
	default:
		return ""
	}
}

func (p *Pipeline) Invoke(ctx context.Context, question string) (*domain.PipelineState, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "invoke pipeline", fmt.Errorf("question is required"))
	}

	final, err := p.runnable.Invoke(ctx, domain.PipelineState{Input: question})
	if err != nil {
		stage, entity, _ := domain.StageOf(err)
		slog.Error("pipeline_failed", "stage", stage, "entity", entity, "error", err)
		return nil, err
	}

	slog.Info("pipeline_completed",
		"route", final.Route.String(),
		"root_entity", final.RootEntity,
		"entities", len(final.Entities),
		"pdf_pages", len(final.PDFPages),
	)
	return &final, nil
}
