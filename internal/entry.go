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

	"github.com/starford/kornell/internal/api"
	"github.com/starford/kornell/internal/gateway"
	"github.com/starford/kornell/internal/index"
	"github.com/starford/kornell/internal/mcpserver"
	"github.com/starford/kornell/internal/noteservice"
	"github.com/starford/kornell/internal/render"
	"github.com/starford/kornell/internal/session"
	"github.com/starford/kornell/internal/sse"
	"github.com/starford/kornell/internal/storage"
)

const (
	indexThrottle   = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

// workspace bundles the components every entry point needs.
type workspace struct {
	root     string
	store    *storage.FS
	db       *index.DB
	notes    *noteservice.Service
	renderer *render.HTML
	logger   *slog.Logger
}

func openWorkspace(cfg *Config, logger *slog.Logger) (*workspace, error) {
	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	return &workspace{
		root:     store.Root(),
		store:    store,
		db:       db,
		notes:    noteservice.NewService(store, db, logger),
		renderer: render.NewHTML(),
		logger:   logger,
	}, nil
}

// sessions builds a session manager writing through the workspace.
func (w *workspace) sessions(cfg *Config, notify session.Notifier) *session.Manager {
	return session.NewManager(gateway.NewFS(w.store, w.logger), session.Options{
		DefaultFileName: cfg.Workspace.DefaultFileName,
		Renderer:        w.renderer,
		Logger:          w.logger,
		Notify:          notify,
	})
}

func (w *workspace) sync() {
	if err := index.Sync(w.db, w.store, w.logger); err != nil {
		w.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
}

func (w *workspace) Close() error {
	return w.db.Close()
}

// Run starts the HTTP backend with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		slog.SetDefault(logger)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_path", cfg.Workspace.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	ws, err := openWorkspace(cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.sync()

	broker := sse.NewBroker(indexThrottle)
	defer broker.Close()

	sessions := ws.sessions(cfg, func(e session.Event) {
		broker.PublishSessionEvent(string(e.Kind), e.SessionID, e.Path)
	})

	apiRouter := api.NewRouter(api.Deps{
		Notes:         ws.notes,
		Sessions:      sessions,
		Renderer:      ws.renderer,
		Events:        broker,
		WorkspaceRoot: ws.root,
		AuthEnabled:   cfg.Auth.AuthEnabled(),
		Token:         cfg.Auth.Token,
		Logger:        logger,
	})
	attachments := api.NewAttachmentHandler(ws.root, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	// Rendered notes embed attachments with plain <img> tags, which cannot
	// carry a bearer header.
	r.Get("/attachments/{filename}", attachments.ServeFile)

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, ws.db, ws.store, ws.root, logger, broker.PublishNoteEvent)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
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

// errShutdown stops the errgroup once the server has been shut down so the
// watcher exits too.
var errShutdown = errors.New("shutdown")

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// RunMCP serves the MCP tools over stdin/stdout. Logs go to stderr because
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}

	ws, err := openWorkspace(cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.sync()

	srv := mcpserver.New(mcpserver.Deps{
		Notes:    ws.notes,
		Store:    ws.store,
		Sessions: ws.sessions(cfg, nil),
		Renderer: ws.renderer,
		Logger:   logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return index.Watch(gCtx, ws.db, ws.store, ws.root, logger, nil)
	})
	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server listening on stdio")
		if err := srv.Listen(gCtx, app.stdin, app.stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	})
	return g.Wait()
}
