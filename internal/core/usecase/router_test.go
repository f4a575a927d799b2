package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

func TestRouteReturnsClosedDecision(t *testing.T) {
	observer := &recordingObserver{}
	router := NewRouter(&scriptedGenerator{route: "Tree, asks about shareholders"}, domain.PipelineLimits{}, observer)

	decision, err := router.Route(context.Background(), "Who are the shareholders of Acme Corp?")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision != domain.RouteTree {
		t.Fatalf("expected tree, got %q", decision)
	}
	if len(observer.routes) != 1 || observer.routes[0] != "tree" {
		t.Fatalf("expected route observation, got %v", observer.routes)
	}
}

func TestRouteRejectsAmbiguousOutput(t *testing.T) {
	router := NewRouter(&scriptedGenerator{route: "maybe, tree"}, domain.PipelineLimits{}, nil)

	_, err := router.Route(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrRoutingAmbiguous) {
		t.Fatalf("expected ErrRoutingAmbiguous, got %v", err)
	}
	if stage, _, _ := domain.StageOf(err); stage != StageRoute {
		t.Fatalf("expected route stage, got %q", stage)
	}
}

func TestRouteModelFailure(t *testing.T) {
	router := NewRouter(&scriptedGenerator{routeErr: errors.New("connection refused")}, domain.PipelineLimits{}, nil)

	_, err := router.Route(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrModelCall) {
		t.Fatalf("expected ErrModelCall, got %v", err)
	}
}

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRouteAppliesModelCallTimeout(t *testing.T) {
	router := NewRouter(blockingGenerator{}, domain.PipelineLimits{ModelCallTimeout: 10 * time.Millisecond}, nil)

	_, err := router.Route(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrModelCall) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected model timeout, got %v", err)
	}
}

func TestResolveRejectsEmptyEntityName(t *testing.T) {
	resolver := NewEntityResolver(&scriptedGenerator{entity: "  \n"}, domain.PipelineLimits{})

	_, err := resolver.Resolve(context.Background(), "Who owns it?")
	if !domain.IsKind(err, domain.ErrModelCall) {
		t.Fatalf("expected ErrModelCall, got %v", err)
	}
}

func TestResolveTrimsResponse(t *testing.T) {
	resolver := NewEntityResolver(&scriptedGenerator{entity: "  Acme Corp\n"}, domain.PipelineLimits{})

	name, err := resolver.Resolve(context.Background(), "Who are the shareholders of Acme Corp?")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if name != "Acme Corp" {
		t.Fatalf("expected trimmed name, got %q", name)
	}
}
