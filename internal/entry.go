// Package internal wires configuration into the raido commands: the
// migration pipeline, the read-only inspection server, and the MCP
// stdio server.
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
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/enrich"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/migrate"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/vaultservice"
)

// newLogger builds the process-wide JSON logger. Serve logs to stdout;
// migrate and mcp pass stderr because their stdout carries the run
// summary and the MCP transport respectively.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// RunMigrate executes the migration pipeline against the configured
// vault and prints a run summary to stdout.
func RunMigrate(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stderr)

	mopts := migrate.Options{
		Root:        cfg.Vault.Path,
		Source:      app.source,
		MaxNameLen:  cfg.Migrate.MaxNameLength,
		Concurrency: cfg.Migrate.Concurrency,
		ScanWindow:  cfg.Migrate.ScanWindow,
		Log:         logger,
	}

	if app.enrich {
		enricher, err := buildEnricher(cfg, app.source, logger)
		if err != nil {
			return err
		}
		mopts.Enricher = enricher
	}

	res, err := migrate.Run(ctx, mopts)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, res)
	if len(res.Failures) > 0 {
		return fmt.Errorf("migrate: %d files failed", len(res.Failures))
	}
	return nil
}

// buildEnricher assembles the remote metadata enricher. The vault root
// must exist before the storage provider can be created; when a source
// archive is given the root is created here, matching what extraction
// would do anyway.
func buildEnricher(cfg *Config, source string, logger *slog.Logger) (*enrich.Enricher, error) {
	if cfg.Enrich.Token == "" {
		return nil, fmt.Errorf("enrich: API token required (set NOTION_TOKEN or enrich.token)")
	}
	if source != "" {
		if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create vault dir: %w", err)
		}
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	cache, err := enrich.OpenCache(cfg.Enrich.CachePath, cfg.Enrich.CacheSize)
	if err != nil {
		return nil, err
	}
	client := enrich.NewClient(cfg.Enrich.BaseURL, cfg.Enrich.Version, cfg.Enrich.Token)
	return enrich.New(client, cache, store, cfg.Enrich.RequestsPerSecond, logger), nil
}

// printSummary writes the human-readable run report.
func printSummary(w io.Writer, res *migrate.Result) {
	fmt.Fprintf(w, "Migration finished in %s\n", res.Duration.Round(time.Millisecond))
	if res.Extracted > 0 {
		fmt.Fprintf(w, "  extracted:        %d files\n", res.Extracted)
	}
	if res.Tables > 0 {
		fmt.Fprintf(w, "  table pages:      %d from %d tables\n", res.TablePages, res.Tables)
	}
	fmt.Fprintf(w, "  notes:            %d\n", res.Notes)
	fmt.Fprintf(w, "  directories:      %d\n", res.Dirs)
	fmt.Fprintf(w, "  renamed:          %d\n", res.Renamed)
	fmt.Fprintf(w, "  links converted:  %d\n", res.LinksConverted)
	fmt.Fprintf(w, "  assets updated:   %d\n", res.AssetsUpdated)
	fmt.Fprintf(w, "  callouts:         %d\n", res.Callouts)
	fmt.Fprintf(w, "  front matter:     %d new, %d merged\n", res.FrontMatterNew, res.FrontMatterKept)
	if res.DuplicateGroups > 0 {
		fmt.Fprintf(w, "  duplicate titles: %d groups (see raido serve /duplicates)\n", res.DuplicateGroups)
	}
	if res.EmptyDirs > 0 {
		fmt.Fprintf(w, "  empty dirs:       %d removed\n", res.EmptyDirs)
	}
	if res.Enrich != nil {
		fmt.Fprintf(w, "  enriched:         %d notes (%d unchanged, %d skipped, %d failed)\n",
			res.Enrich.Enriched, res.Enrich.Unchanged, res.Enrich.Skipped, res.Enrich.Failed)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  FAILED %s: %v\n", f.Path, f.Err)
	}
}

// RunServe starts the read-only HTTP inspection surface over a migrated
// vault: REST API, SSE change events, and the index watcher.
func RunServe(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
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
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker fed by the watcher.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build the read-only API router.
	svc := vaultservice.New(store, db)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, store.Root())

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

	// Mount API routes (SSE included) under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher keeps the index current and feeds the SSE broker.
	g.Go(func() error {
		if err := index.Watch(gCtx, db, store, cfg.Vault.Path, logger, func(kind, path string) {
			broker.PublishNoteEvent(kind, path)
		}); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
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

// RunMCP exposes the vault to LLM clients over MCP stdio. Logs go to
// stderr because stdout is the protocol transport.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stderr)

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(vaultservice.New(store, db))
	logger.Info("MCP server listening on stdio", slog.String("vault", store.Root()))
	return srv.ServeStdio()
}
