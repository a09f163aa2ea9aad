// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/othala/internal/catalog"
	"github.com/starford/othala/internal/catalogservice"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/mcpserver"
	"github.com/starford/othala/internal/storage"
)

// Run starts the application with the given options: it opens the catalog
// and its index, runs an initial sync, then serves the MCP stdio surface
// while an fsnotify watcher keeps the index converged with the tree.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured logging goes to stderr; stdout belongs to the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure catalog directory exists.
	if err := os.MkdirAll(cfg.Catalog.Path, 0o755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}

	// Initialize storage.
	fs, err := storage.NewFS(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, fs, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// Build store, service, and MCP server.
	store := catalog.New(fs)
	svc := catalogservice.NewService(store, fs, db, logger)
	mcpSrv := mcpserver.New(svc)

	// Shutdown signals cancel the group context, which stops both the
	// watcher and the MCP stdio listener.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(sigCtx)

	// Start file watcher keeping the index in sync.
	g.Go(func() error {
		return index.Watch(gCtx, db, fs, fs.Root(), logger, nil)
	})

	// Serve MCP over stdio.
	g.Go(func() error {
		logger.Info("MCP server starting on stdio")
		if err := mcpSrv.ServeStdio(gCtx); err != nil {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Stopped successfully")
	return nil
}
