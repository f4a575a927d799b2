package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

func TestSummarizeEmbedsFormattedRecords(t *testing.T) {
	store := &fakeStore{records: map[string][]domain.EntityRecord{
		"Acme Corp": {
			{EntityName: "Acme Corp", PageNumber: 1, Shareholders: []domain.Shareholder{
				{Name: "Acme Holdings", Type: "corporate", Shares: 600, Percentage: 60},
				{Name: "Jane Doe", Type: "individual", Percentage: 40},
			}},
		},
	}}
	generator := &scriptedGenerator{}
	summarizer := NewEntitySummarizer(store, generator, domain.PipelineLimits{}, nil)

	summary, err := summarizer.Summarize(context.Background(), "Acme Corp")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "summary of Acme Corp" {
		t.Fatalf("expected verbatim model response, got %q", summary)
	}

	prompt := generator.lastWithPrefix("Describe the immediate")
	for _, want := range []string{
		"entity_name: Acme Corp",
		"- Acme Holdings (corporate) shares=600 percentage=60.00%",
		"- Jane Doe (individual) percentage=40.00%",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSummarizeWithoutRecordsStillCallsModel(t *testing.T) {
	generator := &scriptedGenerator{}
	summarizer := NewEntitySummarizer(&fakeStore{}, generator, domain.PipelineLimits{}, nil)

	if _, err := summarizer.Summarize(context.Background(), "Ghost Inc"); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got := generator.countPrefix("Describe the immediate"); got != 1 {
		t.Fatalf("expected one model call, got %d", got)
	}
	if !strings.Contains(generator.lastWithPrefix("Describe the immediate"), "(no records found)") {
		t.Fatalf("expected empty-context marker")
	}
}

func TestSummarizeNodeDegradesChildStoreFailure(t *testing.T) {
	observer := &recordingObserver{}
	store := &fakeStore{recordErr: map[string]error{"Acme Retail": errors.New("shard failure")}}
	summarizer := NewEntitySummarizer(store, &scriptedGenerator{}, domain.PipelineLimits{}, observer)

	summary, err := summarizer.SummarizeNode(context.Background(), "Acme Retail", domain.RoleChild)
	if err != nil {
		t.Fatalf("SummarizeNode() error = %v", err)
	}
	if summary == "" {
		t.Fatalf("expected best-effort summary")
	}
	if len(observer.degraded) != 1 || observer.degraded[0] != StageSummarize {
		t.Fatalf("expected degraded summarize observation, got %v", observer.degraded)
	}
}

func TestSummarizeNodeRootStoreFailureIsFatal(t *testing.T) {
	store := &fakeStore{recordErr: map[string]error{"Acme Corp": errors.New("shard failure")}}
	summarizer := NewEntitySummarizer(store, &scriptedGenerator{}, domain.PipelineLimits{}, nil)

	_, err := summarizer.SummarizeNode(context.Background(), "Acme Corp", domain.RoleRoot)
	if !domain.IsKind(err, domain.ErrStoreQuery) {
		t.Fatalf("expected ErrStoreQuery, got %v", err)
	}
}

func TestSummarizeModelFailureIsFatal(t *testing.T) {
	generator := &scriptedGenerator{summaryErr: errors.New("model overloaded")}
	summarizer := NewEntitySummarizer(&fakeStore{}, generator, domain.PipelineLimits{}, nil)

	_, err := summarizer.SummarizeNode(context.Background(), "Acme Retail", domain.RoleChild)
	if !domain.IsKind(err, domain.ErrModelCall) {
		t.Fatalf("expected ErrModelCall, got %v", err)
	}
	_, entity, _ := domain.StageOf(err)
	if entity != "Acme Retail" {
		t.Fatalf("expected entity on error, got %q", entity)
	}
}
