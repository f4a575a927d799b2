package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

func TestExpandVisitsAcyclicTreeOnceInBreadthFirstOrder(t *testing.T) {
	store := &fakeStore{children: map[string][]string{
		"Acme Corp":     {"Acme Holdings", "Acme Retail"},
		"Acme Holdings": {"Acme Family Trust", "Acme Retail"},
		"Acme Retail":   {"Retail Partners"},
	}}
	expander := NewTreeExpander(store, domain.PipelineLimits{}, nil)

	root, entities, err := expander.Expand(context.Background(), " Acme Corp ")
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if root != "Acme Corp" {
		t.Fatalf("expected canonical root, got %q", root)
	}
	want := []string{"Acme Corp", "Acme Holdings", "Acme Retail", "Acme Family Trust", "Retail Partners"}
	if !reflect.DeepEqual(entities, want) {
		t.Fatalf("entities = %v, want %v", entities, want)
	}
	if len(store.childCalls) != len(want) {
		t.Fatalf("expected one child lookup per entity, got %v", store.childCalls)
	}
}

func TestExpandTerminatesOnCycle(t *testing.T) {
	store := &fakeStore{children: map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}}
	expander := NewTreeExpander(store, domain.PipelineLimits{}, nil)

	_, entities, err := expander.Expand(context.Background(), "A")
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if !reflect.DeepEqual(entities, []string{"A", "B"}) {
		t.Fatalf("unexpected entities: %v", entities)
	}
}

func TestExpandIsDeterministicForSameSnapshot(t *testing.T) {
	store := &fakeStore{children: map[string][]string{
		"R": {"C1", "C2", "C3"},
		"C2": {"C4", "R"},
		"C3": {"C4"},
	}}
	expander := NewTreeExpander(store, domain.PipelineLimits{}, nil)

	_, first, err := expander.Expand(context.Background(), "R")
	if err != nil {
		t.Fatalf("first Expand() error = %v", err)
	}
	_, second, err := expander.Expand(context.Background(), "R")
	if err != nil {
		t.Fatalf("second Expand() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("traversal order changed: %v vs %v", first, second)
	}
}

func TestExpandUnknownRootReturnsSingleElement(t *testing.T) {
	observer := &recordingObserver{}
	expander := NewTreeExpander(&fakeStore{}, domain.PipelineLimits{}, observer)

	root, entities, err := expander.Expand(context.Background(), "Ghost Inc")
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if root != "Ghost Inc" || !reflect.DeepEqual(entities, []string{"Ghost Inc"}) {
		t.Fatalf("unexpected result: %q %v", root, entities)
	}
	if !reflect.DeepEqual(observer.sizes, []int{1}) {
		t.Fatalf("expected tree size observation, got %v", observer.sizes)
	}
}

func TestExpandRootLookupFailureIsFatal(t *testing.T) {
	store := &fakeStore{childErr: map[string]error{"Acme Corp": errors.New("es down")}}
	expander := NewTreeExpander(store, domain.PipelineLimits{}, nil)

	_, _, err := expander.Expand(context.Background(), "Acme Corp")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrStoreQuery) {
		t.Fatalf("expected ErrStoreQuery, got %v", err)
	}
	stage, entity, ok := domain.StageOf(err)
	if !ok || stage != StageExpand || entity != "Acme Corp" {
		t.Fatalf("unexpected stage info: %q %q", stage, entity)
	}
}

func TestExpandChildLookupFailureDegradesToLeaf(t *testing.T) {
	observer := &recordingObserver{}
	store := &fakeStore{
		children: map[string][]string{
			"Acme Corp":   {"Acme Holdings", "Acme Retail"},
			"Acme Retail": {"Retail Partners"},
		},
		childErr: map[string]error{"Acme Holdings": errors.New("timeout")},
	}
	expander := NewTreeExpander(store, domain.PipelineLimits{}, observer)

	_, entities, err := expander.Expand(context.Background(), "Acme Corp")
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	want := []string{"Acme Corp", "Acme Holdings", "Acme Retail", "Retail Partners"}
	if !reflect.DeepEqual(entities, want) {
		t.Fatalf("entities = %v, want %v", entities, want)
	}
	if !reflect.DeepEqual(observer.degraded, []string{StageExpand}) {
		t.Fatalf("expected one degraded lookup, got %v", observer.degraded)
	}
}

func TestExpandStopsAtMaxEntities(t *testing.T) {
	store := &fakeStore{children: map[string][]string{
		"R": {"A", "B", "C"},
		"A": {"D"},
	}}
	expander := NewTreeExpander(store, domain.PipelineLimits{MaxTreeEntities: 3}, nil)

	_, entities, err := expander.Expand(context.Background(), "R")
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if !reflect.DeepEqual(entities, []string{"R", "A", "B"}) {
		t.Fatalf("unexpected entities: %v", entities)
	}
}

func TestExpandSkipsBlankChildNames(t *testing.T) {
	store := &fakeStore{children: map[string][]string{"R": {"", "  ", "A", " A "}}}
	expander := NewTreeExpander(store, domain.PipelineLimits{}, nil)

	_, entities, err := expander.Expand(context.Background(), "R")
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if !reflect.DeepEqual(entities, []string{"R", "A"}) {
		t.Fatalf("unexpected entities: %v", entities)
	}
}

func TestExpandRejectsEmptyRoot(t *testing.T) {
	expander := NewTreeExpander(&fakeStore{}, domain.PipelineLimits{}, nil)
	_, _, err := expander.Expand(context.Background(), "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
