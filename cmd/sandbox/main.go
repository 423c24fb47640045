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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/fakebackend"
	"github.com/joao-fontenele/storefront/internal/logging"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const (
	version  = "0.1.0"
	tokenTTL = 24 * time.Hour
)

func main() {
	ctx := context.Background()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, logging.FormatJSON, cfg.LogLevel)

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront-sandbox", version, cfg.TracingEndpoint())
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront-sandbox", version)
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	store := fakebackend.NewStore()
	store.SeedProducts(fakebackend.DefaultCatalog()...)
	handler := fakebackend.NewHandler(store, fakebackend.NewTokens([]byte(os.Getenv("SANDBOX_TOKEN_SECRET")), tokenTTL), logger)

	serviceToken, err := handler.IssueToken(domain.AdminActorID)
	if err != nil {
		logger.Error("failed to issue service token", "error", err)
		os.Exit(1)
	}
	logger.Info("administrator service token issued, set it as RECONCILER_TOKEN", "token", serviceToken)

	mux := handler.Mux()
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "storefront-sandbox",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting sandbox backend", "port", cfg.Port, "api_prefix", fakebackend.APIPrefix)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
