package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
)

const (
	StageRoute      = "route"
	StageResolve    = "resolve_entity"
	StageExpand     = "expand_tree"
	StageSummarize  = "summarize_entity"
	StageSynthesize = "synthesize_tree"
	StagePages      = "page_references"
	StageFlat       = "flat_answer"
)

const (
	defaultModelCallTimeout   = 60 * time.Second
	defaultStoreCallTimeout   = 15 * time.Second
	defaultSummaryConcurrency = 4
	defaultMaxTreeEntities    = 500
	defaultFlatTopK           = 10
)

func normalizeLimits(limits domain.PipelineLimits) domain.PipelineLimits {
	if limits.ModelCallTimeout <= 0 {
		limits.ModelCallTimeout = defaultModelCallTimeout
	}
	if limits.StoreCallTimeout <= 0 {
		limits.StoreCallTimeout = defaultStoreCallTimeout
	}
	if limits.SummaryConcurrency <= 0 {
		limits.SummaryConcurrency = defaultSummaryConcurrency
	}
	if limits.MaxTreeEntities <= 0 {
		limits.MaxTreeEntities = defaultMaxTreeEntities
	}
	if limits.FlatTopK <= 0 {
		limits.FlatTopK = defaultFlatTopK
	}
	return limits
}

func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

// generate runs one model call under the per-call timeout and tags failures as ErrModelCall.
func generate(ctx context.Context, generator ports.TextGenerator, timeout time.Duration, prompt string) (string, error) {
	text, err := withTimeout(ctx, timeout, func(callCtx context.Context) (string, error) {
		return generator.Generate(callCtx, prompt)
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrModelCall, "generate", err)
	}
	return text, nil
}

func storeError(operation string, err error) error {
	return domain.WrapError(domain.ErrStoreQuery, operation, err)
}

type noopObserver struct{}

func (noopObserver) ObserveRoute(string)                       {}
func (noopObserver) ObserveStage(string, time.Duration, error) {}
func (noopObserver) ObserveTreeSize(int)                       {}
func (noopObserver) ObserveDegraded(string)                    {}

func observerOrNoop(observer ports.PipelineObserver) ports.PipelineObserver {
	if observer == nil {
		return noopObserver{}
	}
	return observer
}

func formatRecords(records []domain.EntityRecord) string {
	var b strings.Builder
	for idx, record := range records {
		if idx > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("entity_name: %s\n", record.EntityName))
		if len(record.Shareholders) == 0 {
			b.WriteString("shareholders: none listed\n")
			continue
		}
		b.WriteString("shareholders:\n")
		for _, holder := range record.Shareholders {
			b.WriteString("- ")
			b.WriteString(holder.Name)
			if holder.Type != "" {
				b.WriteString(" (" + holder.Type + ")")
			}
			if holder.Shares > 0 {
				b.WriteString(fmt.Sprintf(" shares=%g", holder.Shares))
			}
			if holder.Percentage > 0 {
				b.WriteString(fmt.Sprintf(" percentage=%.2f%%", holder.Percentage))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatDocuments(docs []domain.Document) string {
	var b strings.Builder
	for idx, doc := range docs {
		b.WriteString(fmt.Sprintf("[%d] entity=%s page=%d score=%.3f\n%s\n\n",
			idx+1,
			doc.EntityName,
			doc.PageNumber,
			doc.Score,
			doc.Text,
		))
	}
	return b.String()
}
