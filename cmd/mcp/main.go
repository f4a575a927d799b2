package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/entity-tree-rag/internal/adapters/mcp"
	"github.com/kirillkom/entity-tree-rag/internal/bootstrap"
	"github.com/kirillkom/entity-tree-rag/internal/config"
	"github.com/kirillkom/entity-tree-rag/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Observers{})
	if err != nil {
		slog.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	s := mcpadapter.NewServer(mcpadapter.NewTools(app.Pipeline, cfg.APIRequestTimeout), version)
	if err := server.ServeStdio(s); err != nil {
		slog.Error("mcp_serve_error", "error", err)
	}
}
