// Package app provides the application initialization and lifecycle management
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aireviewmate/aireviewmate/internal/config"
	"github.com/aireviewmate/aireviewmate/internal/gemini"
	"github.com/aireviewmate/aireviewmate/internal/github"
	"github.com/aireviewmate/aireviewmate/internal/loggy"
	"github.com/aireviewmate/aireviewmate/internal/ratelimit"
	"github.com/aireviewmate/aireviewmate/internal/review"
	"github.com/aireviewmate/aireviewmate/internal/server"
	"github.com/urfave/cli/v2"
)

// App represents the application instance with its dependencies
type App struct {
	Config  *config.Config
	Gemini  *gemini.Client
	Review  *review.Service
	GitHub  *github.Service
	Limiter *ratelimit.Limiter
	Server  *server.Server
}

// New initializes a new application instance with all its dependencies.
// A positive port overrides the configured listening port.
func New(envFile string, port int) (*App, error) {
	cfg, err := initConfig(envFile)
	if err != nil {
		return nil, err
	}

	if port > 0 {
		cfg.Server.Port = port
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing",
		"model", cfg.Gemini.Model,
		"log_level", cfg.Logging.Level,
	)

	app, err := initServices(cfg)
	if err != nil {
		return nil, err
	}

	loggy.Info("Application initialized successfully")
	return app, nil
}

// initConfig loads and sets up the application configuration
func initConfig(envFile string) (*config.Config, error) {
	cfg, err := config.LoadFromEnv(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set the global configuration
	config.Set(cfg)
	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initServices initializes all application services
func initServices(cfg *config.Config) (*App, error) {
	logger := loggy.GetGlobalLogger()

	geminiClient := gemini.NewClient(cfg.Gemini, logger)
	if !cfg.Gemini.HasAPIKey() {
		loggy.Warn("Gemini API key is not configured, review and fix requests will fail")
	}

	reviewService := review.NewService(geminiClient, cfg.Gemini, logger)
	githubService := github.NewService(cfg.GitHub, logger)
	if !cfg.GitHub.OAuthConfigured() {
		loggy.Warn("GitHub OAuth credentials are not configured, GitHub routes will be unavailable")
	}

	limiter := ratelimit.New(cfg.RateLimit, logger)
	srv := server.New(cfg.Server, reviewService, githubService, limiter, logger)

	return &App{
		Config:  cfg,
		Gemini:  geminiClient,
		Review:  reviewService,
		GitHub:  githubService,
		Limiter: limiter,
		Server:  srv,
	}, nil
}

// Run starts the HTTP server and blocks until the process receives an
// interrupt or termination signal, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigCh:
		loggy.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		loggy.Info("Context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	loggy.Info("Shutdown complete")
	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
