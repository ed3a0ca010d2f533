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

	"github.com/tobias-gill/Figshare-desktop/internal/api"
	"github.com/tobias-gill/Figshare-desktop/internal/articleservice"
	"github.com/tobias-gill/Figshare-desktop/internal/figshare"
	"github.com/tobias-gill/Figshare-desktop/internal/index"
	"github.com/tobias-gill/Figshare-desktop/internal/library"
	"github.com/tobias-gill/Figshare-desktop/internal/mcpserver"
	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/sse"
	"github.com/tobias-gill/Figshare-desktop/internal/uploader"
)

// directory combines the cached vocabulary with the live project
// listing for the API's remote-directory endpoints.
type directory struct {
	*figshare.CachedVocabulary
	client *figshare.Client
}

func (d directory) Projects(ctx context.Context) ([]figshare.Project, error) {
	return d.client.Projects(ctx)
}

// components holds the wired application core shared by the HTTP and
// MCP entry points.
type components struct {
	db     *index.DB
	svc    *articleservice.Service
	worker *uploader.Worker
	dir    directory
	broker *sse.Broker
}

func (c *components) close() {
	if c.broker != nil {
		c.broker.Close()
	}
	_ = c.db.Close()
}

func build(ctx context.Context, cfg *Config, logger *slog.Logger, withBroker bool) (*components, error) {
	// Ensure the library directory exists.
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	store, err := library.NewStore(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init library: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	clientOpts := []figshare.ClientOption{}
	if cfg.Figshare.Token != "" {
		clientOpts = append(clientOpts, figshare.WithToken(cfg.Figshare.Token))
	}
	if cfg.Figshare.BaseURL != "" {
		clientOpts = append(clientOpts, figshare.WithBaseURL(cfg.Figshare.BaseURL))
	}
	client := figshare.NewClient(clientOpts...)

	vocab := figshare.NewCachedVocabulary(client, figshare.DefaultVocabularyTTL)
	norm := metadata.NewNormalizer(vocab)
	coll := library.NewCollection()

	var broker *sse.Broker
	var notify articleservice.EventCallback
	var uploadNotify func(sse.Event)
	if withBroker {
		broker = sse.NewBroker(2 * time.Second)
		notify = broker.PublishArticleEvent
		uploadNotify = broker.Publish
	}

	svc := articleservice.NewService(store, coll, db, norm, client, logger, notify)

	// Restore tracked records and reconcile with the data files.
	if err := svc.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load records: %w", err)
	}
	if err := svc.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	worker := uploader.New(client, coll, norm, svc, cfg.Figshare.ProjectID,
		store.Root(), logger, uploadNotify)

	return &components{
		db:     db,
		svc:    svc,
		worker: worker,
		dir:    directory{CachedVocabulary: vocab, client: client},
		broker: broker,
	}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int64("figshare_project", cfg.Figshare.ProjectID),
		slog.String("log_level", cfg.App.LogLevel.String()))

	core, err := build(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer core.close()

	apiRouter := api.NewRouter(core.svc, core.worker, core.dir,
		cfg.Auth.AuthEnabled(), cfg.Auth.Token, core.broker, cfg.Library.Path)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
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

	// Start the library watcher.
	g.Go(func() error {
		if err := core.svc.Watch(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watcher error: %w", err)
		}
		return nil
	})

	// Start the upload worker.
	g.Go(func() error {
		if err := core.worker.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("uploader error: %w", err)
		}
		return nil
	})

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdin/stdout with the given options.
// Logs go to stderr so they never corrupt the stdio transport.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	core, err := build(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer core.close()

	srv := mcpserver.New(core.svc, core.worker)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		if err := core.worker.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("uploader error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Stop the worker once the stdio transport closes.
		defer cancel()
		logger.Info("MCP server starting on stdio")
		return srv.ServeStdio()
	})

	return g.Wait()
}
