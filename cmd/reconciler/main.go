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

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/logging"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/reconcile"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const version = "0.1.0"

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, logging.FormatJSON, cfg.LogLevel)

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}
	if cfg.ReconcilerToken == "" {
		logger.Error("RECONCILER_TOKEN environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront-reconciler", version, cfg.TracingEndpoint())
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront-reconciler", version)
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	client := api.NewClient(cfg.APIURL, api.NewHTTPClient(cfg.HTTPTimeout), api.StaticToken(cfg.ReconcilerToken), logger)
	handler, err := reconcile.NewHandler(client, logger, reconcile.WithMaxAttempts(cfg.ReconcilerMaxAttempts))
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		os.Exit(1)
	}

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, messaging.TopicCompensationFailed, messaging.ReconcilerGroup, logger)
	defer func() { _ = consumer.Close() }()

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting reconciler",
		"brokers", cfg.KafkaBrokers,
		"topic", messaging.TopicCompensationFailed,
		"max_attempts", cfg.ReconcilerMaxAttempts,
	)

	err = consumer.Consume(ctx, handler.Handle)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
