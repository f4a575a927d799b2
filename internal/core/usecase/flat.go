package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
	"github.com/kirillkom/entity-tree-rag/internal/core/prompts"
)

// FlatAnswerUseCase answers from one top-K search without any hierarchy.
type FlatAnswerUseCase struct {
	searcher  ports.DocumentSearcher
	generator ports.TextGenerator
	limits    domain.PipelineLimits
	observer  ports.PipelineObserver
}

func NewFlatAnswerUseCase(
	searcher ports.DocumentSearcher,
	generator ports.TextGenerator,
	limits domain.PipelineLimits,
	observer ports.PipelineObserver,
) *FlatAnswerUseCase {
	return &FlatAnswerUseCase{
		searcher:  searcher,
		generator: generator,
		limits:    normalizeLimits(limits),
		observer:  observerOrNoop(observer),
	}
}

func (uc *FlatAnswerUseCase) Answer(ctx context.Context, question string) (string, error) {
	start := time.Now()
	text, err := uc.answer(ctx, question)
	uc.observer.ObserveStage(StageFlat, time.Since(start), err)
	return text, err
}

func (uc *FlatAnswerUseCase) answer(ctx context.Context, question string) (string, error) {
	docs, err := withTimeout(ctx, uc.limits.StoreCallTimeout, func(callCtx context.Context) ([]domain.Document, error) {
		return uc.searcher.SearchDocuments(callCtx, question, uc.limits.FlatTopK)
	})
	if err != nil {
		return "", domain.NewStageError(StageFlat, "", storeError("search documents", err))
	}
	slog.Debug("flat_search", "hits", len(docs), "top_k", uc.limits.FlatTopK)

	text, err := generate(ctx, uc.generator, uc.limits.ModelCallTimeout, prompts.FlatAnswer(question, formatDocuments(docs)))
	if err != nil {
		return "", domain.NewStageError(StageFlat, "", err)
	}
	return text, nil
}
