package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/storefront/internal/cli"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/logging"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		return cli.ExitUsage
	}

	// The CLI only logs warnings unless a level is asked for.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = slog.LevelWarn
	}
	logger := logging.New(os.Stderr, logging.FormatText, level)

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront", version, cfg.TracingEndpoint())
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		return cli.ExitFailure
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	store, closeStore, err := cli.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", "storage", cfg.Storage, "error", err)
		return cli.ExitFailure
	}
	defer func() { _ = closeStore() }()

	opts := cli.Options{Store: store}
	if len(cfg.KafkaBrokers) > 0 {
		events := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicCheckoutEvents)
		defer func() { _ = events.Close() }()
		compensation := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicCompensationFailed)
		defer func() { _ = compensation.Close() }()
		opts.Events = events
		opts.CompensationFailed = compensation
	}

	app, err := cli.New(ctx, cfg, opts, os.Stdout, os.Stderr, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return cli.ExitFailure
	}
	return app.Run(ctx, os.Args[1:])
}
