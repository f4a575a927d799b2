package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
	"github.com/kirillkom/entity-tree-rag/internal/core/prompts"
)

// EntitySummarizer describes one entity's immediate relationships from its store records.
type EntitySummarizer struct {
	records      ports.EntityRecordStore
	generator    ports.TextGenerator
	modelTimeout time.Duration
	storeTimeout time.Duration
	observer     ports.PipelineObserver
}

func NewEntitySummarizer(
	records ports.EntityRecordStore,
	generator ports.TextGenerator,
	limits domain.PipelineLimits,
	observer ports.PipelineObserver,
) *EntitySummarizer {
	limits = normalizeLimits(limits)
	return &EntitySummarizer{
		records:      records,
		generator:    generator,
		modelTimeout: limits.ModelCallTimeout,
		storeTimeout: limits.StoreCallTimeout,
		observer:     observerOrNoop(observer),
	}
}

// Summarize fails on any store or model error.
func (s *EntitySummarizer) Summarize(ctx context.Context, entityName string) (string, error) {
	return s.SummarizeNode(ctx, entityName, domain.RoleRoot)
}

// SummarizeNode degrades a child's store failure to an empty record set; root failures stay fatal.
func (s *EntitySummarizer) SummarizeNode(ctx context.Context, entityName string, role domain.NodeRole) (string, error) {
	records, err := withTimeout(ctx, s.storeTimeout, func(callCtx context.Context) ([]domain.EntityRecord, error) {
		return s.records.EntityRecords(callCtx, entityName)
	})
	if err != nil {
		if role == domain.RoleRoot {
			return "", domain.NewStageError(StageSummarize, entityName, storeError("entity records", err))
		}
		slog.Warn("entity_records_degraded", "entity", entityName, "error", err)
		s.observer.ObserveDegraded(StageSummarize)
		records = nil
	}
	if len(records) == 0 {
		slog.Debug("entity_records_empty", "entity", entityName)
	}

	summary, err := generate(ctx, s.generator, s.modelTimeout, prompts.EntitySummary(entityName, formatRecords(records)))
	if err != nil {
		return "", domain.NewStageError(StageSummarize, entityName, err)
	}
	return summary, nil
}
