package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bubble-support/faq-bot/internal/config"
	"github.com/bubble-support/faq-bot/internal/core/ports"
	"github.com/bubble-support/faq-bot/internal/core/safety"
	"github.com/bubble-support/faq-bot/internal/core/usecase"
	"github.com/bubble-support/faq-bot/internal/infrastructure/importer"
	"github.com/bubble-support/faq-bot/internal/infrastructure/llm/gemini"
	"github.com/bubble-support/faq-bot/internal/infrastructure/queue/nats"
	"github.com/bubble-support/faq-bot/internal/infrastructure/repository/postgres"
	"github.com/bubble-support/faq-bot/internal/infrastructure/resilience"
	"github.com/bubble-support/faq-bot/internal/infrastructure/storage/localfs"
)

// App wires the full dependency graph. With no Gemini API key the
// service degrades to lexical retrieval and stored answers: generator,
// embedder, confirmer and extractor stay nil.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Catalog    *usecase.Catalog
	ChatUC     *usecase.ChatUseCase
	AdminUC    *usecase.KnowledgeAdminUseCase
	Classifier *safety.Classifier
	Audit      ports.AuditLog
	Feed       *nats.Feed
	Documents  *importer.DocumentImporter

	GeneratorReady bool
	EmbedderReady  bool

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, observer usecase.PipelineObserver) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	entries := postgres.NewEntryRepository(db)
	if err := entries.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure entry schema: %w", err)
	}
	audit := postgres.NewAuditRepository(db)
	if err := audit.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	feed, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init change feed: %w", err)
	}

	var (
		embedder  ports.Embedder
		generator ports.Generator
		confirmer ports.Confirmer
		store     ports.VectorSnapshotStore
		documents *importer.DocumentImporter
	)
	if cfg.GeminiAPIKey != "" {
		client := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiGenModel, cfg.GeminiEmbedModel, cfg.GeminiTimeout, executor)
		embedder = gemini.NewEmbedder(client)
		generator = gemini.NewGenerator(client)
		confirmer = gemini.NewConfirmer(client)
		documents = importer.NewDocumentImporter(gemini.NewExtractor(client), cfg.ImportFetchTimeout)

		store, err = localfs.NewSnapshotStore(cfg.VectorSnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("init snapshot store: %w", err)
		}
	} else {
		logger.Warn("gemini api key not set, running lexical-only without generation")
	}

	classifier, err := safety.NewClassifier(cfg.IntentRulesPath, confirmer, logger)
	if err != nil {
		return nil, fmt.Errorf("load intent rules: %w", err)
	}

	catalog := usecase.NewCatalog(entries, embedder, store, cfg.EmbedBatchSize, logger)
	if err := catalog.Reload(ctx); err != nil {
		return nil, fmt.Errorf("build retrieval snapshot: %w", err)
	}

	chatUC := usecase.NewChatUseCase(catalog, classifier, generator, audit, cfg.SupportContact, cfg.RetrievalTopK, observer, logger)
	adminUC := usecase.NewKnowledgeAdminUseCase(entries, catalog, feed, logger)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Catalog:    catalog,
		ChatUC:     chatUC,
		AdminUC:    adminUC,
		Classifier: classifier,
		Audit:      audit,
		Feed:       feed,
		Documents:  documents,

		GeneratorReady: generator != nil,
		EmbedderReady:  embedder != nil,

		closeFn: func() {
			feed.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
