package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

type scriptedGenerator struct {
	mu sync.Mutex

	route      string
	routeErr   error
	entity     string
	summaryErr error
	mergeErr   error
	flatAnswer string
	delays     map[string]time.Duration

	prompts []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if entity, ok := summaryEntity(prompt); ok {
		if delay := g.delays[entity]; delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)

	switch {
	case strings.HasPrefix(prompt, "You are a router"):
		return g.route, g.routeErr
	case strings.HasPrefix(prompt, "Extract the name"):
		return g.entity, nil
	case strings.HasPrefix(prompt, "Describe the immediate"):
		if g.summaryErr != nil {
			return "", g.summaryErr
		}
		entity, _ := summaryEntity(prompt)
		return "summary of " + entity, nil
	case strings.HasPrefix(prompt, "You are given per-entity"):
		return "merged answer", g.mergeErr
	case strings.HasPrefix(prompt, "Answer user question"):
		return g.flatAnswer, nil
	default:
		return "", nil
	}
}

// summaryPrompts returns the per-entity prompts in call order.
func (g *scriptedGenerator) summaryPrompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0)
	for _, p := range g.prompts {
		if strings.HasPrefix(p, "Describe the immediate") {
			out = append(out, p)
		}
	}
	return out
}

func (g *scriptedGenerator) countPrefix(prefix string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.prompts {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func (g *scriptedGenerator) lastWithPrefix(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.prompts) - 1; i >= 0; i-- {
		if strings.HasPrefix(g.prompts[i], prefix) {
			return g.prompts[i]
		}
	}
	return ""
}

func summaryEntity(prompt string) (string, bool) {
	if !strings.HasPrefix(prompt, "Describe the immediate") {
		return "", false
	}
	_, rest, ok := strings.Cut(prompt, "Entity:\n")
	if !ok {
		return "", false
	}
	entity, _, _ := strings.Cut(rest, "\n\nRecords:")
	return entity, true
}

type fakeStore struct {
	mu sync.Mutex

	children  map[string][]string
	records   map[string][]domain.EntityRecord
	childErr  map[string]error
	recordErr map[string]error
	docs      []domain.Document
	searchErr error
	pages     []domain.PageReference
	pagesErr  error

	childCalls  []string
	recordCalls []string
	searchCalls int
	searchLimit int
	searchQuery string
	pagesArg    []string
}

func (s *fakeStore) ChildEntities(_ context.Context, entityName string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.childCalls = append(s.childCalls, entityName)
	if err := s.childErr[entityName]; err != nil {
		return nil, err
	}
	return s.children[entityName], nil
}

func (s *fakeStore) EntityRecords(_ context.Context, entityName string) ([]domain.EntityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordCalls = append(s.recordCalls, entityName)
	if err := s.recordErr[entityName]; err != nil {
		return nil, err
	}
	return s.records[entityName], nil
}

func (s *fakeStore) PageReferences(_ context.Context, entityNames []string) ([]domain.PageReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagesArg = append([]string(nil), entityNames...)
	if s.pagesErr != nil {
		return nil, s.pagesErr
	}
	return s.pages, nil
}

func (s *fakeStore) SearchDocuments(_ context.Context, query string, limit int) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	s.searchQuery = query
	s.searchLimit = limit
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.docs, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	routes   []string
	degraded []string
	sizes    []int
}

func (o *recordingObserver) ObserveRoute(decision string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, decision)
}

func (o *recordingObserver) ObserveStage(string, time.Duration, error) {}

func (o *recordingObserver) ObserveTreeSize(entities int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sizes = append(o.sizes, entities)
}

func (o *recordingObserver) ObserveDegraded(stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.degraded = append(o.degraded, stage)
}
