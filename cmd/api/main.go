package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/bubble-support/faq-bot/internal/adapters/http"
	"github.com/bubble-support/faq-bot/internal/bootstrap"
	"github.com/bubble-support/faq-bot/internal/config"
	"github.com/bubble-support/faq-bot/internal/infrastructure/importer"
	"github.com/bubble-support/faq-bot/internal/observability/logging"
	"github.com/bubble-support/faq-bot/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewJSONLogger("faq-bot-api", cfg.LogLevel)
	serverMetrics := metrics.NewServerMetrics("faq-bot-api")

	app, err := bootstrap.New(ctx, cfg, logger, serverMetrics)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	var documents httpadapter.DocumentImporter
	if app.Documents != nil {
		documents = app.Documents
	}

	router := httpadapter.NewRouter(
		app.ChatUC,
		app.AdminUC,
		app.Audit,
		documents,
		app.Classifier,
		importer.DecodeAuto,
		importer.DecodeXLSX,
		httpadapter.Options{
			RateLimitRPS:     cfg.APIRateLimitRPS,
			RateLimitBurst:   cfg.APIRateLimitBurst,
			MaxConcurrent:    cfg.APIMaxConcurrent,
			BackpressureWait: time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
			MetricsHandler:   serverMetrics.Handler(),
			MetricsMiddleware: func(next http.Handler) http.Handler {
				return serverMetrics.Middleware("faq-bot-api", next)
			},
			Health: httpadapter.Health{
				GeneratorReady: app.GeneratorReady,
				EmbedderReady:  app.EmbedderReady,
				EntryCount:     func() int { return len(app.Catalog.Entries()) },
			},
		},
	).Handler()

	// Other replicas may rewrite the knowledge base; follow the change
	// feed so this one serves from a fresh snapshot too.
	go func() {
		err := app.Feed.SubscribeKnowledgeUpdated(ctx, func(handlerCtx context.Context) {
			reloadCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
			defer cancel()
			if err := app.Catalog.Reload(reloadCtx); err != nil {
				logger.Error("snapshot reload failed", "error", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("change feed subscription failed", "error", err)
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
