package usecase

import (
	"context"
	"reflect"
	"testing"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

func newTestPipeline(t *testing.T, generator *scriptedGenerator, store *fakeStore) *Pipeline {
	t.Helper()
	limits := domain.PipelineLimits{}
	pipeline, err := NewPipeline(
		NewRouter(generator, limits, nil),
		NewTreeAnswerUseCase(generator, store, store, limits, nil),
		NewFlatAnswerUseCase(store, generator, limits, nil),
	)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return pipeline
}

func TestPipelineTreeBranch(t *testing.T) {
	store := acmeStore()
	generator := &scriptedGenerator{route: "tree, ownership question", entity: "Acme Corp"}
	pipeline := newTestPipeline(t, generator, store)

	state, err := pipeline.Invoke(context.Background(), "Who are the shareholders of Acme Corp?")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if state.Route != domain.RouteTree {
		t.Fatalf("expected tree route, got %q", state.Route)
	}
	if state.Output != "merged answer" {
		t.Fatalf("unexpected output %q", state.Output)
	}
	if !reflect.DeepEqual(state.Entities, []string{"Acme Corp", "Acme Holdings", "Acme Retail"}) {
		t.Fatalf("unexpected entities %v", state.Entities)
	}
	if state.PDFPages == nil {
		t.Fatalf("tree branch must set pdf pages")
	}
	if store.searchCalls != 0 {
		t.Fatalf("flat search must not run on tree branch")
	}
}

func TestPipelineGeneralBranch(t *testing.T) {
	store := &fakeStore{docs: []domain.Document{{EntityName: "Acme Corp", Text: "Acme Corp is a retailer", Score: 0.9}}}
	generator := &scriptedGenerator{route: "general", flatAnswer: "Retail."}
	pipeline := newTestPipeline(t, generator, store)

	state, err := pipeline.Invoke(context.Background(), "What industry is Acme Corp in?")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if state.Output != "Retail." {
		t.Fatalf("unexpected output %q", state.Output)
	}
	if store.searchCalls != 1 || store.searchLimit != 10 {
		t.Fatalf("expected one search with K=10, got calls=%d limit=%d", store.searchCalls, store.searchLimit)
	}
	if store.searchQuery != "What industry is Acme Corp in?" {
		t.Fatalf("search must use the question text, got %q", store.searchQuery)
	}
	if state.PDFPages != nil {
		t.Fatalf("flat branch must not set pdf pages, got %v", state.PDFPages)
	}
	if generator.countPrefix("Extract the name") != 0 {
		t.Fatalf("entity resolver must not run on general branch")
	}
}

func TestPipelineAmbiguousRouteRunsNoBranch(t *testing.T) {
	store := acmeStore()
	generator := &scriptedGenerator{route: "maybe, tree", entity: "Acme Corp"}
	pipeline := newTestPipeline(t, generator, store)

	_, err := pipeline.Invoke(context.Background(), "Who are the shareholders of Acme Corp?")
	if !domain.IsKind(err, domain.ErrRoutingAmbiguous) {
		t.Fatalf("expected ErrRoutingAmbiguous, got %v", err)
	}
	if generator.countPrefix("Extract the name") != 0 || store.searchCalls != 0 || len(store.childCalls) != 0 {
		t.Fatalf("no branch may execute after an ambiguous route")
	}
}

func TestPipelineRejectsEmptyQuestion(t *testing.T) {
	pipeline := newTestPipeline(t, &scriptedGenerator{}, &fakeStore{})

	_, err := pipeline.Invoke(context.Background(), "  ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBranchForHasNoFallback(t *testing.T) {
	if got := branchFor(domain.RouteDecision("maybe")); got != "" {
		t.Fatalf("expected no branch, got %q", got)
	}
	if branchFor(domain.RouteTree) != nodeTree || branchFor(domain.RouteGeneral) != nodeFlat {
		t.Fatalf("unexpected branch mapping")
	}
}
