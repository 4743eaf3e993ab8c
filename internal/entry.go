// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vocanote/internal/api"
	"github.com/starford/vocanote/internal/auth"
	"github.com/starford/vocanote/internal/mcpserver"
	"github.com/starford/vocanote/internal/noteservice"
	"github.com/starford/vocanote/internal/storage"
	"github.com/starford/vocanote/internal/store"
	"github.com/starford/vocanote/internal/summarize"
	"github.com/starford/vocanote/internal/transcribe"
	"github.com/starford/vocanote/internal/users"
	pkgconfig "github.com/starford/vocanote/pkg/config"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logLevel := new(slog.LevelVar)
	logger := newLogger(app, logLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("mode", cfg.App.Mode),
		slog.String("db_driver", cfg.Database.Driver),
		slog.String("uploads_dir", cfg.Uploads.Dir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	staging, err := storage.NewStaging(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("init staging: %w", err)
	}
	purgeStaging(staging, logger)
	defer purgeStaging(staging, logger)

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		logger.Warn("auth.secret is empty, using a random secret; tokens will not survive a restart")
	}

	if cfg.Transcription.APIKey == "" {
		logger.Warn("transcription.api_key is empty, transcription requests will fail")
	}
	if cfg.Summarization.APIKey == "" {
		logger.Warn("summarization.api_key is empty, summary requests will fail")
	}
	generator, err := newGenerator(ctx, cfg.Summarization)
	if err != nil {
		return fmt.Errorf("init summarizer: %w", err)
	}

	apiRouter := api.NewRouter(api.Deps{
		Users:                users.NewService(db, cfg.Auth.BcryptCost),
		Notes:                noteservice.NewService(db),
		Tokens:               auth.NewIssuer([]byte(secret), cfg.Auth.TokenTTL),
		Transcriber:          transcribe.NewGateway(newTranscriptionProvider(cfg.Transcription), staging, logger),
		Summarizer:           summarize.NewGateway(generator, logger),
		Logger:               logger,
		DevMode:              !cfg.App.Production(),
		ProtectTranscription: cfg.Auth.ProtectTranscription,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mountHealth(r, db, logger)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the log level when the config file changes.
	if app.configPath != "" {
		g.Go(func() error {
			err := pkgconfig.Watch(gCtx, app.configPath,
				func() { reloadLogLevel(app.configPath, logLevel, logger) },
				func(err error) { logger.Error("config watcher error", slog.String("error", err.Error())) })
			if err != nil {
				logger.Warn("config watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Unblock the config watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the note tools over stdio on behalf of an existing user.
func RunMCP(ctx context.Context, username string, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logLevel := new(slog.LevelVar)
	logger := newLogger(app, logLevel)

	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	user, err := users.NewService(db, cfg.Auth.BcryptCost).ByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup user %q: %w", username, err)
	}

	generator, err := newGenerator(ctx, cfg.Summarization)
	if err != nil {
		return fmt.Errorf("init summarizer: %w", err)
	}

	srv := mcpserver.New(
		noteservice.NewService(db),
		summarize.NewGateway(generator, logger),
		user.ID,
	)

	logger.Info("MCP server starting", slog.String("user", user.Username))
	return srv.ServeStdio()
}

var errShutdown = errors.New("shutdown")

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger installs a structured JSON logger whose level can be changed
// at runtime through level.
func newLogger(app *application, level *slog.LevelVar) *slog.Logger {
	level.Set(app.config.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func reloadLogLevel(path string, level *slog.LevelVar, logger *slog.Logger) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		logger.Warn("config reload failed, keeping current settings", slog.String("error", err.Error()))
		return
	}
	if cfg.App.LogLevel == level.Level() {
		return
	}
	level.Set(cfg.App.LogLevel)
	logger.Info("log level changed", slog.String("log_level", cfg.App.LogLevel.String()))
}

func purgeStaging(s *storage.Staging, logger *slog.Logger) {
	n, err := s.Purge()
	if err != nil {
		logger.Warn("staging purge failed", slog.String("error", err.Error()))
	}
	if n > 0 {
		logger.Info("removed leftover staged uploads", slog.Int("count", n))
	}
}

func newTranscriptionProvider(c TranscriptionConfig) transcribe.Provider {
	return transcribe.NewGroqProvider(transcribe.GroqConfig{
		BaseURL:  c.BaseURL,
		APIKey:   c.APIKey,
		Model:    c.Model,
		Language: c.Language,
		Timeout:  c.Timeout,
	})
}

// newGenerator builds the Gemini generator. Without an API key every
// request fails with errNoSummarizationKey so the rest of the service can
// still start.
func newGenerator(ctx context.Context, c SummarizationConfig) (summarize.Generator, error) {
	if c.APIKey == "" {
		return unconfiguredGenerator{}, nil
	}
	return summarize.NewGeminiClient(ctx, summarize.GeminiConfig{
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
		Model:   c.Model,
		Timeout: c.Timeout,
	})
}

var errNoSummarizationKey = errors.New("summarization.api_key is not configured")

type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(context.Context, string) (string, error) {
	return "", errNoSummarizationKey
}

type pinger interface {
	Ping(ctx context.Context) error
}

// mountHealth registers the unauthenticated liveness and readiness endpoints.
// Readiness fails while the database cannot be reached.
func mountHealth(r chi.Router, db pinger, logger *slog.Logger) {
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
}

func writeStatus(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `{"status":"`+s+`"}`)
}
