// Package main is the entry point for the neuroboss service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/neuroboss/internal/adapters/clients"
	"github.com/jsamuelsen/neuroboss/internal/adapters/clients/acl"
	"github.com/jsamuelsen/neuroboss/internal/adapters/http"
	"github.com/jsamuelsen/neuroboss/internal/adapters/http/handlers"
	"github.com/jsamuelsen/neuroboss/internal/adapters/web"
	"github.com/jsamuelsen/neuroboss/internal/app"
	"github.com/jsamuelsen/neuroboss/internal/content"
	"github.com/jsamuelsen/neuroboss/internal/platform/config"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
	"github.com/jsamuelsen/neuroboss/internal/platform/telemetry"
	"github.com/jsamuelsen/neuroboss/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("model", cfg.Model.Name),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Model:        cfg.Model.Name,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	metrics, err := telemetry.NewGenerationMetrics()
	if err != nil {
		return fmt.Errorf("creating generation metrics: %w", err)
	}

	// 5. Create health registry
	healthRegistry := ports.NewHealthRegistry()

	// 6. Create HTTP client for the model API
	httpClient, err := clients.New(&clients.Config{
		ServiceName: acl.ServiceName,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	// 7. Create model client adapter (ACL pattern)
	modelClient := acl.NewOpenAIClient(acl.OpenAIClientConfig{
		Client:  httpClient,
		APIKey:  cfg.Model.APIKey,
		BaseURL: cfg.Model.BaseURL,
		Metrics: metrics,
		Logger:  logger,
	})

	if err := healthRegistry.Register(modelClient); err != nil {
		return fmt.Errorf("registering model client health check: %w", err)
	}

	// 8. Load copy and prompt text
	copyText, err := content.Load(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	// 9. Create generation service (application layer)
	service := app.NewNeurobossService(app.NeurobossServiceConfig{
		ModelClient: modelClient,
		Model:       cfg.Model.Name,
		SchemaName:  cfg.Model.SchemaName,
		Strict:      cfg.Model.Strict,
		InputPrefix: cfg.Model.InputPrefix,
		Instruction: copyText.Model.Instruction,
		Fallback:    copyText.FallbackResult(),
		Metrics:     metrics,
		Logger:      logger,
	})

	// 10. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime, cfg.Model.Name)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo)
	neurobossHandler := handlers.NewNeurobossHandler(service)

	// 11. Create HTTP server and bind its port; the page needs the address
	server := http.New(&cfg.Server, logger)
	if err := server.Listen(); err != nil {
		return err
	}

	// 12. Create the HTML page when enabled
	var page http.PageRegistrar

	if cfg.Web.Enabled {
		endpoint := web.NewEndpointClient(web.EndpointClientConfig{
			BaseURL: endpointURL(cfg, server),
			Timeout: cfg.Web.Timeout,
		})

		webPage, err := web.NewPage(web.PageConfig{
			Content:   copyText,
			Generator: endpoint,
		})
		if err != nil {
			return fmt.Errorf("creating web page: %w", err)
		}

		page = webPage
	}

	// 13. Setup router with all middleware and routes
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:           logger,
		AppConfig:        &cfg.App,
		CORS:             cfg.CORS,
		HealthHandler:    healthHandler,
		NeurobossHandler: neurobossHandler,
		Page:             page,
		Timeout:          cfg.Server.RequestTimeout,
	})

	// 14. Start server (non-blocking)
	serverErr := server.Serve()

	// 15. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// endpointURL is where the page posts projects. It defaults to this server over loopback.
func endpointURL(cfg *config.Config, server *http.Server) string {
	if cfg.Web.EndpointURL != "" {
		return cfg.Web.EndpointURL
	}

	return server.LoopbackURL()
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	// Stop accepting new requests, drain in-flight generations
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
