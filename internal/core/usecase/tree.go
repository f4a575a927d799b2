package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
)

// TreeAnswerUseCase runs the hierarchical branch: resolve, expand, summarize each node, merge, page lookup.
type TreeAnswerUseCase struct {
	resolver    *EntityResolver
	expander    *TreeExpander
	summarizer  *EntitySummarizer
	synthesizer *TreeSynthesizer
	records     ports.EntityRecordStore
	limits      domain.PipelineLimits
	observer    ports.PipelineObserver
}

func NewTreeAnswerUseCase(
	generator ports.TextGenerator,
	relations ports.EntityRelations,
	records ports.EntityRecordStore,
	limits domain.PipelineLimits,
	observer ports.PipelineObserver,
) *TreeAnswerUseCase {
	limits = normalizeLimits(limits)
	observer = observerOrNoop(observer)
	return &TreeAnswerUseCase{
		resolver:    NewEntityResolver(generator, limits),
		expander:    NewTreeExpander(relations, limits, observer),
		summarizer:  NewEntitySummarizer(records, generator, limits, observer),
		synthesizer: NewTreeSynthesizer(generator, limits),
		records:     records,
		limits:      limits,
		observer:    observer,
	}
}

func (uc *TreeAnswerUseCase) Answer(ctx context.Context, question string) (*domain.TreeAnswer, error) {
	root, err := observeStage(uc.observer, StageResolve, func() (string, error) {
		return uc.resolver.Resolve(ctx, question)
	})
	if err != nil {
		return nil, err
	}

	var entities []string
	root, err = observeStage(uc.observer, StageExpand, func() (string, error) {
		var canonical string
		var expandErr error
		canonical, entities, expandErr = uc.expander.Expand(ctx, root)
		return canonical, expandErr
	})
	if err != nil {
		return nil, err
	}

	tree, err := observeStage(uc.observer, StageSummarize, func() (domain.TreeContext, error) {
		return uc.summarizeAll(ctx, entities)
	})
	if err != nil {
		return nil, err
	}

	text, err := observeStage(uc.observer, StageSynthesize, func() (string, error) {
		return uc.synthesizer.Synthesize(ctx, tree)
	})
	if err != nil {
		return nil, err
	}

	pages, err := observeStage(uc.observer, StagePages, func() ([]domain.PageReference, error) {
		return withTimeout(ctx, uc.limits.StoreCallTimeout, func(callCtx context.Context) ([]domain.PageReference, error) {
			return uc.records.PageReferences(callCtx, entities)
		})
	})
	if err != nil {
		return nil, domain.NewStageError(StagePages, root, storeError("page references", err))
	}
	if pages == nil {
		pages = []domain.PageReference{}
	}

	return &domain.TreeAnswer{
		Text:       text,
		RootEntity: root,
		Entities:   entities,
		Context:    tree,
		PDFPages:   pages,
	}, nil
}

// summarizeAll fans out per-entity summaries and reassembles them by discovery index.
func (uc *TreeAnswerUseCase) summarizeAll(ctx context.Context, entities []string) (domain.TreeContext, error) {
	summaries := make([]string, len(entities))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uc.limits.SummaryConcurrency)
	for i, entity := range entities {
		role := domain.RoleChild
		if i == 0 {
			role = domain.RoleRoot
		}
		group.Go(func() error {
			summary, err := uc.summarizer.SummarizeNode(groupCtx, entity, role)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return domain.NewTreeContext(entities, summaries), nil
}

func observeStage[T any](observer ports.PipelineObserver, stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	observer.ObserveStage(stage, time.Since(start), err)
	return out, err
}
