// Command worker runs the stream consumer: it attaches to a Redis
// Streams consumer group, dispatches each message through the
// decode/dedupe/validate/enrich/persist pipeline, and exposes
// Prometheus metrics while it runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/nova-stream/eventpipe/internal/broker/redisstream"
	"github.com/nova-stream/eventpipe/internal/config"
	"github.com/nova-stream/eventpipe/internal/dispatcher"
	"github.com/nova-stream/eventpipe/internal/enrich"
	"github.com/nova-stream/eventpipe/internal/metrics"
	"github.com/nova-stream/eventpipe/internal/migrations"
	"github.com/nova-stream/eventpipe/internal/obslog"
	"github.com/nova-stream/eventpipe/internal/processor"
	"github.com/nova-stream/eventpipe/internal/resilience"
	"github.com/nova-stream/eventpipe/internal/store/postgres"
	"github.com/nova-stream/eventpipe/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worker exited:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := obslog.Init(obslog.Config{Level: cfg.LogLevel, Format: "JSON"})
	logger.Info("configuration loaded", "worker_id", cfg.WorkerID, "stream", cfg.StreamName, "consumer_group", cfg.ConsumerGroup)

	var telCfg telemetry.Config
	_ = cleanenv.ReadEnv(&telCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telCfg)
	if err != nil {
		return err
	}

	runner, err := migrations.NewRunner(cfg.StoreURL)
	if err != nil {
		return err
	}
	if err := runner.Up(); err != nil {
		_ = runner.Close()
		return err
	}
	if err := runner.Close(); err != nil {
		logger.Warn("error closing migration connection", "error", err)
	}

	st, err := postgres.New(postgres.Config{DSN: cfg.StoreURL})
	if err != nil {
		return err
	}

	br, err := redisstream.New(redisstream.Config{
		URL:           cfg.BrokerURL,
		Stream:        cfg.StreamName,
		ConsumerGroup: cfg.ConsumerGroup,
		ConsumerName:  cfg.WorkerID,
		BlockTimeout:  cfg.BlockTimeout(),
	})
	if err != nil {
		_ = st.Close()
		return err
	}

	enricher := &enrich.Enricher{WorkerID: cfg.WorkerID}
	retryCfg := resilience.RetryConfig{
		MaxAttempts:    cfg.MaxRetries,
		InitialBackoff: cfg.RetryDelay(),
		MaxBackoff:     10 * time.Second,
		Multiplier:     1.0,
	}
	proc := processor.New(st, enricher, retryCfg)

	w := dispatcher.New(br, proc, dispatcher.Config{
		BatchSize:         cfg.BatchSize,
		ProcessingTimeout: cfg.ProcessingTimeout(),
	})

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("worker starting")
	runErr := w.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down metrics server", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("error shutting down telemetry", "error", err)
	}
	if err := st.Close(); err != nil {
		logger.Warn("error closing store connection", "error", err)
	}

	logger.Info("worker stopped")
	return runErr
}
