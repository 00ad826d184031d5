package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bubble-support/faq-bot/internal/bootstrap"
	"github.com/bubble-support/faq-bot/internal/config"
	"github.com/bubble-support/faq-bot/internal/observability/logging"
	"github.com/bubble-support/faq-bot/internal/observability/metrics"
)

// The worker keeps a warm retrieval snapshot per replica: it listens
// for knowledge-base updates and rebuilds its catalog on each signal.
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewJSONLogger("faq-bot-worker", cfg.LogLevel)
	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("faq-bot-worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Feed.SubscribeKnowledgeUpdated(ctx, func(handlerCtx context.Context) {
		reloadCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()

		started := time.Now()
		reloadErr := app.Catalog.Reload(reloadCtx)
		workerMetrics.FinishReload(time.Since(started), reloadErr)
		if reloadErr != nil {
			app.Logger.Error("snapshot reload failed", "error", reloadErr)
		}
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
