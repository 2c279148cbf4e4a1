// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mnemo/internal/api"
	"github.com/starford/mnemo/internal/inbox"
	"github.com/starford/mnemo/internal/mcpserver"
	"github.com/starford/mnemo/internal/noteservice"
	"github.com/starford/mnemo/internal/seed"
	"github.com/starford/mnemo/internal/sse"
	"github.com/starford/mnemo/internal/storage"
	"github.com/starford/mnemo/internal/store"
)

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

// open installs the structured JSON logger and opens the SQLite store.
func (a *application) open() (*slog.Logger, *store.DB, error) {
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	return logger, db, nil
}

// seedStore loads the configured seed entries into an empty store.
func (a *application) seedStore(ctx context.Context, svc *noteservice.Service, logger *slog.Logger) (int, error) {
	entries, err := seed.Load(a.config.Seed.Path)
	if err != nil {
		return 0, err
	}
	n, err := svc.Seed(ctx, entries)
	if err != nil {
		return n, fmt.Errorf("seed: %w", err)
	}
	logger.Info("Seed applied", slog.Int("created", n))
	return n, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger, db, err := app.open()
	if err != nil {
		return err
	}
	defer db.Close()

	// SSE broker fed by note service events.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	svc := noteservice.NewService(db, noteservice.WithEvents(broker.PublishNoteEvent))

	if cfg.Seed.OnStart {
		if _, err := app.seedStore(ctx, svc, logger); err != nil {
			logger.Warn("seed on start failed", slog.String("error", err.Error()))
		}
	}

	apiRouter := api.NewRouter(svc, api.Options{
		DefaultIntervalDays: cfg.Review.DefaultIntervalDays,
		DueLimit:            cfg.Review.DueLimit,
	}, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := db.CountNotes(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Inbox importer.
	if cfg.Inbox.Enabled() {
		importer, err := newImporter(cfg, svc, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return importer.Watch(gCtx)
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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup context so background workers stop
// together with the HTTP server.
var errShutdown = errors.New("shutdown")

func newImporter(cfg *Config, svc *noteservice.Service, logger *slog.Logger) (*inbox.Importer, error) {
	if err := os.MkdirAll(cfg.Inbox.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	files, err := storage.NewFS(cfg.Inbox.Path)
	if err != nil {
		return nil, fmt.Errorf("init inbox storage: %w", err)
	}
	return inbox.New(svc, files, files.Root(), logger,
		inbox.WithArchiveDir(cfg.Inbox.ArchiveDir),
	), nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to the configured
// log output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger, db, err := app.open()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := noteservice.NewService(db)
	if app.config.Seed.OnStart {
		if _, err := app.seedStore(ctx, svc, logger); err != nil {
			logger.Warn("seed on start failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, app.config.Review.DueLimit).ServeStdio()
}

// RunSeed loads the seed entries into an empty store and returns how many
// notes were created.
func RunSeed(ctx context.Context, opts ...Option) (int, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	logger, db, err := app.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return app.seedStore(ctx, noteservice.NewService(db), logger)
}

// RunImport performs a single inbox sweep without watching.
func RunImport(ctx context.Context, opts ...Option) (int, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	if !app.config.Inbox.Enabled() {
		return 0, fmt.Errorf("inbox.path is not configured")
	}
	logger, db, err := app.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	importer, err := newImporter(app.config, noteservice.NewService(db), logger)
	if err != nil {
		return 0, err
	}
	return importer.Sweep(ctx)
}

// RunExport writes the notes matching keyword and tag into dir.
func RunExport(ctx context.Context, dir, keyword, tag string, opts ...Option) (int, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	_, db, err := app.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	files, err := storage.NewFS(dir)
	if err != nil {
		return 0, err
	}
	return inbox.Export(ctx, noteservice.NewService(db), files, keyword, tag)
}
