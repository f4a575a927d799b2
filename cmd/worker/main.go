package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/bootstrap"
	"github.com/kirillkom/entity-tree-rag/internal/config"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/queue/nats"
	"github.com/kirillkom/entity-tree-rag/internal/observability/logging"
	"github.com/kirillkom/entity-tree-rag/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	pipelineMetrics := metrics.NewPipelineMetrics("worker", workerMetrics.Registerer())
	breakerMetrics := metrics.NewBreakerMetrics("worker", workerMetrics.Registerer())

	app, err := bootstrap.New(ctx, cfg, bootstrap.Observers{
		Pipeline:           pipelineMetrics,
		BreakerStateChange: breakerMetrics.OnStateChange,
	})
	if err != nil {
		slog.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{QueueGroup: cfg.NATSQueueGroup})
	if err != nil {
		slog.Error("nats_connect_error", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	responder := nats.NewResponder(app.Pipeline, cfg.WorkerRequestTimeout, workerMetrics)
	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "queue_group", cfg.NATSQueueGroup)
	if err := queue.ServeQuestions(ctx, responder); err != nil {
		slog.Error("worker_subscribe_error", "error", err)
	}
}
