package services

import (
	"context"
	"fmt"

	"gamechat-rag/catalog"
	"gamechat-rag/config"
	"gamechat-rag/database"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// ServiceContainer holds all service instances
type ServiceContainer struct {
	Pipeline ChatPipeline
	Catalog  CardCatalog

	// Database is set only when the catalog is served from Postgres
	PostgresService *database.PostgresService

	MetricsService MetricsService
	Logger         Logger
	HealthService  HealthService
}

// Close releases resources held by the container
func (c *ServiceContainer) Close() {
	if c.PostgresService != nil {
		c.PostgresService.Close()
	}
}

// ServiceFactory creates and configures all services
type ServiceFactory struct {
	config *config.Config
	logger Logger
}

// NewServiceFactory creates a new service factory. A nil logger is built from
// the logging configuration.
func NewServiceFactory(cfg *config.Config, logger Logger) *ServiceFactory {
	if logger == nil {
		logger = NewLoggerFromConfig(&LoggerConfig{
			Level:  ParseLogLevel(cfg.Logging.Level),
			Format: cfg.Logging.Format,
		})
	}
	return &ServiceFactory{
		config: cfg,
		logger: logger,
	}
}

// CreateServices creates and wires all services together
func (f *ServiceFactory) CreateServices(ctx context.Context) (*ServiceContainer, error) {
	container := &ServiceContainer{
		Logger:         f.logger,
		MetricsService: NewNoopMetrics(),
	}
	if f.config.Metrics.Enabled {
		container.MetricsService = NewPrometheusMetrics()
	}

	cards, err := f.loadCatalog(ctx, container)
	if err != nil {
		return nil, err
	}
	container.Catalog = cards

	healthService := NewHealthService(Version, f.logger)
	healthService.RegisterChecker(NewCatalogHealthChecker(cards, f.config.Catalog.Source))
	healthService.RegisterChecker(NewCredentialsHealthChecker(f.config))
	if container.PostgresService != nil {
		healthService.RegisterChecker(NewDatabaseHealthChecker("postgres", container.PostgresService))
	}
	container.HealthService = healthService

	if f.config.RAG.UseFake {
		f.logger.Warn("Fake RAG mode enabled, external services will not be called")
		container.Pipeline = NewFakePipeline(f.logger)
		return container, nil
	}

	container.Pipeline = f.createPipeline(cards, container.MetricsService)

	f.logger.Info("Services created",
		Int("card_count", cards.Len()),
		Strings("effect_namespaces", f.config.RAG.EffectNamespaces),
		Bool("openai_configured", f.config.HasOpenAICredentials()),
		Bool("upstash_configured", f.config.HasVectorCredentials()))

	return container, nil
}

func (f *ServiceFactory) createPipeline(cards CardCatalog, metrics MetricsService) *RAGPipeline {
	rag := f.config.RAG
	openAIClient := NewOpenAIClient(&f.config.OpenAI)
	searcher := NewVectorSearchService(&f.config.Vector, rag.TopK, f.logger.With(String("component", "vector_search")))

	return NewRAGPipeline(RAGPipelineDeps{
		Parser:           NewDirectiveParser(rag.DirectiveKeyword),
		Embedder:         NewEmbeddingService(openAIClient, f.config.OpenAI.EmbeddingModel, f.logger),
		Searcher:         searcher,
		FanOut:           NewFanOutSearchService(searcher, rag.EffectNamespaces, rag.TopK, rag.FanoutConcurrency, f.logger),
		Generator:        NewAnswerGenerator(openAIClient, f.config.OpenAI.ChatModel, f.logger),
		Catalog:          cards,
		ContextCharLimit: rag.ContextCharLimit,
		Metrics:          metrics,
		Logger:           f.logger.With(String("component", "rag_pipeline")),
	})
}

// loadCatalog reads the card catalog from the configured source. A missing or
// malformed dataset file leaves the catalog empty; an unreachable database is fatal.
func (f *ServiceFactory) loadCatalog(ctx context.Context, container *ServiceContainer) (*catalog.Catalog, error) {
	source := f.config.Catalog

	if source.Source == config.CardSourcePostgres {
		db, err := database.NewPostgresService(ctx, database.DefaultPostgresConfig(source.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect card database: %w", err)
		}
		container.PostgresService = db

		repo := database.NewCardRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare cards table: %w", err)
		}
		items, err := repo.LoadItems(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load cards: %w", err)
		}

		cards, skipped := catalog.FromItems(items)
		f.logCatalog(cards, skipped, "postgres")
		return cards, nil
	}

	cards, err := catalog.LoadFile(source.Path)
	if err != nil {
		f.logger.Warn("Card catalog unavailable, continuing with an empty catalog",
			String("path", source.Path),
			String("error", err.Error()))
		return cards, nil
	}
	f.logCatalog(cards, 0, source.Path)
	return cards, nil
}

func (f *ServiceFactory) logCatalog(cards *catalog.Catalog, skipped int, origin string) {
	f.logger.Info("Card catalog loaded",
		String("source", origin),
		Int("card_count", cards.Len()),
		Int("skipped", skipped))
}
