package main

import (
	"context"
	"log"
	"os"

	mcpadapter "github.com/bubble-support/faq-bot/internal/adapters/mcp"
	"github.com/bubble-support/faq-bot/internal/bootstrap"
	"github.com/bubble-support/faq-bot/internal/config"
	"github.com/bubble-support/faq-bot/internal/observability/logging"
)

// Stdout belongs to the MCP protocol, so everything else goes to
// stderr.
func main() {
	log.SetOutput(os.Stderr)

	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, "faq-bot-mcp", cfg.LogLevel)
	app, err := bootstrap.New(context.Background(), cfg, logger, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.ChatUC, app.AdminUC)
	if err := srv.Serve(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
