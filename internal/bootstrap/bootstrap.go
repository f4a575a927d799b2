package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/entity-tree-rag/internal/config"
	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
	"github.com/kirillkom/entity-tree-rag/internal/core/usecase"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/llm/azureopenai"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/store/elasticsearch"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/store/postgres"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config   config.Config
	Pipeline *usecase.Pipeline

	closers []func()
}

// Backends groups the adapters behind the pipeline ports.
type Backends struct {
	Generator ports.TextGenerator
	Relations ports.EntityRelations
	Records   ports.EntityRecordStore
	Searcher  ports.DocumentSearcher
}

// Observers carries optional telemetry sinks; zero values disable them.
type Observers struct {
	Pipeline           ports.PipelineObserver
	BreakerStateChange func(operation, from, to string)
}

func New(ctx context.Context, cfg config.Config, observers Observers) (*App, error) {
	app := &App{Config: cfg}
	backends, err := app.buildBackends(ctx, cfg, NewExecutor(cfg, observers.BreakerStateChange))
	if err != nil {
		app.Close()
		return nil, err
	}

	pipeline, err := NewPipeline(backends, Limits(cfg), observers.Pipeline)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Pipeline = pipeline

	slog.Info("pipeline_ready",
		"llm_provider", cfg.LLMProvider,
		"store_backend", cfg.StoreBackend,
		"search_backend", cfg.SearchBackend,
		"graph_backend", cfg.GraphBackend,
	)
	return app, nil
}

// NewPipeline assembles the routed pipeline from already constructed backends.
func NewPipeline(backends Backends, limits domain.PipelineLimits, observer ports.PipelineObserver) (*usecase.Pipeline, error) {
	router := usecase.NewRouter(backends.Generator, limits, observer)
	tree := usecase.NewTreeAnswerUseCase(backends.Generator, backends.Relations, backends.Records, limits, observer)
	flat := usecase.NewFlatAnswerUseCase(backends.Searcher, backends.Generator, limits, observer)
	pipeline, err := usecase.NewPipeline(router, tree, flat)
	if err != nil {
		return nil, fmt.Errorf("compile pipeline graph: %w", err)
	}
	return pipeline, nil
}

func Limits(cfg config.Config) domain.PipelineLimits {
	return domain.PipelineLimits{
		ModelCallTimeout:   cfg.ModelCallTimeout,
		StoreCallTimeout:   cfg.StoreCallTimeout,
		SummaryConcurrency: cfg.SummaryConcurrency,
		MaxTreeEntities:    cfg.TreeMaxEntities,
		FlatTopK:           cfg.FlatTopK,
	}
}

// NewExecutor builds the executor shared by every outbound adapter of the process.
func NewExecutor(cfg config.Config, onStateChange func(operation, from, to string)) *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		RetryMaxBackoff:     cfg.RetryMaxBackoff,
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
		OnStateChange:       onStateChange,
	})
}

func (a *App) buildBackends(ctx context.Context, cfg config.Config, executor *resilience.Executor) (Backends, error) {
	var backends Backends
	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Timeout:            cfg.OllamaTimeout,
		ResilienceExecutor: executor,
	})

	switch cfg.LLMProvider {
	case config.LLMProviderAzure, config.LLMProviderOpenAI:
		generator, err := azureopenai.NewGenerator(azureopenai.Options{
			APIKey:             cfg.AzureOpenAIAPIKey,
			Endpoint:           cfg.AzureOpenAIEndpoint,
			Deployment:         cfg.AzureOpenAIDeployment,
			APIVersion:         cfg.AzureOpenAIAPIVersion,
			Temperature:        cfg.LLMTemperature,
			Azure:              cfg.LLMProvider == config.LLMProviderAzure,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return Backends{}, fmt.Errorf("init azure openai: %w", err)
		}
		backends.Generator = generator
	default:
		backends.Generator = ollama.NewGenerator(ollamaClient, cfg.LLMTemperature)
	}

	type entityStore interface {
		ports.EntityRelations
		ports.EntityRecordStore
		ports.DocumentSearcher
	}
	var store entityStore
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return Backends{}, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { closeDB(db) })
		repo := postgres.NewEntityRepository(db, cfg.StoreMaxHits)
		if err := repo.EnsureSchema(ctx); err != nil {
			return Backends{}, fmt.Errorf("ensure schema: %w", err)
		}
		store = repo
	default:
		es, err := elasticsearch.New(elasticsearch.Config{
			Addresses:          cfg.ElasticsearchAddresses,
			Username:           cfg.ElasticsearchUsername,
			Password:           cfg.ElasticsearchPassword,
			APIKey:             cfg.ElasticsearchAPIKey,
			Index:              cfg.ElasticsearchIndex,
			MaxHits:            cfg.StoreMaxHits,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return Backends{}, fmt.Errorf("init elasticsearch: %w", err)
		}
		store = es
	}
	backends.Records = store
	backends.Relations = store
	backends.Searcher = store

	if cfg.SearchBackend == config.SearchBackendQdrant {
		backends.Searcher = qdrant.NewSearcher(
			qdrant.NewWithOptions(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantAPIKey, qdrant.Options{
				ResilienceExecutor: executor,
			}),
			ollama.NewEmbedder(ollamaClient),
		)
	}

	if cfg.GraphBackend == config.GraphBackendNeo4j {
		relations, err := neo4j.New(ctx, neo4j.Config{
			URI:          cfg.Neo4jURI,
			Username:     cfg.Neo4jUsername,
			Password:     cfg.Neo4jPassword,
			Database:     cfg.Neo4jDatabase,
			Label:        cfg.Neo4jLabel,
			Relationship: cfg.Neo4jRelationship,

			ResilienceExecutor: executor,
		})
		if err != nil {
			return Backends{}, fmt.Errorf("init neo4j: %w", err)
		}
		a.closers = append(a.closers, func() { _ = relations.Close(context.Background()) })
		backends.Relations = relations
	}

	return backends, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("postgres_close_failed", "error", err)
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
