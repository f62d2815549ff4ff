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
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/zettel/internal/api"
	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/editor"
	"github.com/starford/zettel/internal/embedding"
	"github.com/starford/zettel/internal/inbox"
	"github.com/starford/zettel/internal/mcpserver"
	"github.com/starford/zettel/internal/models"
	"github.com/starford/zettel/internal/noteservice"
	"github.com/starford/zettel/internal/sse"
	"github.com/starford/zettel/internal/storage"
	"github.com/starford/zettel/internal/store"
	"github.com/starford/zettel/internal/tui"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{version: "dev", out: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger, closeLog, err := newLogger(cfg, app.mode)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", app.mode.String()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("embedding_url", cfg.Embedding.BaseURL),
		slog.String("embedding_model", cfg.Embedding.Model),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(ctx, cfg.SQLite.Path, cfg.Embedding.Dimensions)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	if app.mode == ModeMigrate {
		logger.Info("Migrations applied", slog.String("sqlite_path", cfg.SQLite.Path))
		return nil
	}

	emb := embedding.New(embedding.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
		Retries:    cfg.Embedding.Retries,
	})

	svcOpts := []noteservice.Option{
		noteservice.WithLogger(logger),
		noteservice.WithSearchK(cfg.UI.SearchK),
	}
	if app.mode != ModeTUI && app.mode != ModeAdd {
		articles, err := storage.NewFS(cfg.Articles.Path)
		if err != nil {
			return fmt.Errorf("init articles: %w", err)
		}
		svcOpts = append(svcOpts, noteservice.WithArticles(articles))
	}

	var broker *sse.Broker
	if app.mode == ModeServe {
		broker = sse.NewBroker(2*time.Second, noteservice.EventNoteCreated)
		defer broker.Close()
		svcOpts = append(svcOpts, noteservice.WithEventCallback(broker.PublishNoteEvent))
	}

	svc := noteservice.NewService(db, emb, svcOpts...)

	switch app.mode {
	case ModeTUI:
		return tui.Run(ctx, svc, editor.New(cfg.Editor.Command),
			tui.WithRecentLimit(cfg.UI.RecentLimit),
			tui.WithLogger(logger))
	case ModeServe:
		return serve(ctx, cfg, svc, broker, logger)
	case ModeMCP:
		logger.Info("MCP server starting on stdio")
		return mcpserver.New(svc, app.version).ServeStdio()
	case ModeAdd:
		return addNote(ctx, app, svc)
	case ModePromote:
		return promoteNote(ctx, app, svc)
	}
	return fmt.Errorf("unknown mode %d", app.mode)
}

// newLogger builds the JSON logger for mode. The terminal UI logs to a file
// and MCP keeps stdout for the protocol.
func newLogger(cfg *Config, mode Mode) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: cfg.App.LogLevel}
	switch mode {
	case ModeTUI:
		if cfg.App.LogFile == "" {
			return slog.New(slog.NewJSONHandler(io.Discard, opts)), func() {}, nil
		}
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return slog.New(slog.NewJSONHandler(f, opts)), func() { f.Close() }, nil
	case ModeServe, ModeMigrate:
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), func() {}, nil
	default:
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), func() {}, nil
	}
}

func serve(ctx context.Context, cfg *Config, svc *noteservice.Service, broker *sse.Broker, logger *slog.Logger) error {
	inboxFS, err := storage.NewFS(cfg.Inbox.Path)
	if err != nil {
		return fmt.Errorf("init inbox: %w", err)
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Recent(req.Context(), 1); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"store unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := inbox.Watch(gCtx, svc, inboxFS, inboxFS.Root(), inbox.DefaultDebounce, logger); err != nil {
			logger.Error("inbox watcher failed", slog.String("error", err.Error()))
		}
		return nil
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Unblock the watcher when shutdown came from a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// addNote captures one note. Without content the editor opens seeded with
// the parents' content.
func addNote(ctx context.Context, app *application, svc *noteservice.Service) error {
	var (
		n   *models.Note
		err error
	)
	if strings.TrimSpace(app.content) != "" {
		n, err = svc.CreateNote(ctx, app.content, app.parents)
	} else {
		parents := make([]models.Note, 0, len(app.parents))
		for _, id := range app.parents {
			d, derr := svc.Note(ctx, id)
			if derr != nil {
				return fmt.Errorf("parent %d: %w", id, derr)
			}
			parents = append(parents, d.Note)
		}
		edited, eerr := editor.New(app.config.Editor.Command).Edit(ctx, noteservice.SeedContent(parents))
		if eerr != nil {
			return eerr
		}
		n, err = svc.Capture(ctx, parents, edited)
	}
	if errors.Is(err, apperr.ErrNoChange) {
		fmt.Fprintln(app.out, "nothing to save")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "created note %d\n", n.ID)
	return nil
}

func promoteNote(ctx context.Context, app *application, svc *noteservice.Service) error {
	p, err := svc.Promote(ctx, app.noteID, app.title)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "promoted note %d to article %d %q (%s)\n",
		p.NoteID, p.ID, p.Title, noteservice.ArticleFilename(p))
	return nil
}
