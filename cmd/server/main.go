// Package main provides the entry point for the chat config server.
// It loads configuration, sets up observability and serves the chat extension endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"jupyterchat/internal/config"
	"jupyterchat/internal/handlers"
	"jupyterchat/internal/observability"
	"jupyterchat/internal/services"
	contextutils "jupyterchat/internal/utils"
	"jupyterchat/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Application holds the HTTP server and the telemetry it flushes on shutdown
type Application struct {
	cfg    *config.Config
	server *http.Server
	logger *observability.Logger
}

// NewApplication wires the feedback relay, metrics and router for cfg
func NewApplication(cfg *config.Config, mp *metric.MeterProvider, logger *observability.Logger) (*Application, error) {
	var provider otelmetric.MeterProvider
	if mp != nil {
		provider = mp
	}
	metrics, err := observability.NewServerMetrics(provider)
	if err != nil {
		return nil, err
	}

	feedbackRelay := services.NewFeedbackRelay(cfg, logger)

	router, err := handlers.NewRouter(cfg, feedbackRelay, metrics, logger)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to build router")
	}

	return &Application{
		cfg:    cfg,
		logger: logger,
		server: newHTTPServer(cfg, router),
	}, nil
}

func newHTTPServer(cfg *config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: config.ServerReadHeaderTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts the server down gracefully
func (a *Application) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "Starting chat config server", map[string]interface{}{
			"port":                a.cfg.Server.Port,
			"base_url":            a.cfg.Server.BaseURL,
			"feedback_configured": a.cfg.FeedbackURL() != "",
		})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return contextutils.WrapError(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info(context.Background(), "Shutting down chat config server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return contextutils.WrapError(err, "graceful shutdown failed")
	}
	return nil
}

func main() {
	os.Exit(run())
}

// run returns the process exit code. Deferred telemetry flushes happen before main exits.
func run() int {
	// A .env file is optional; real environment variables always win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}
	if cfg.OpenTelemetry.ServiceVersion == "" {
		cfg.OpenTelemetry.ServiceVersion = version.Version
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, cfg.OpenTelemetry.ServiceName, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), config.TelemetryFlushTimeout)
		defer cancel()
		if err := observability.Shutdown(flushCtx, tp, mp); err != nil {
			logger.Warn(flushCtx, "Error shutting down telemetry providers", map[string]interface{}{"error": err.Error()})
		}
		_ = logger.Sync()
	}()

	app, err := NewApplication(cfg, mp, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(context.Background(), "Server exited with error", err)
		return 1
	}
	return 0
}
