// Package server provides the web browser for the drug registry: a
// hierarchy that produces selection events and a paged table of the
// filtered view, updated over server-sent events.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/Dainanahan/drugtree/internal/browser"
	"github.com/Dainanahan/drugtree/internal/server/notifier"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// ViewLoader composes the registry view.
type ViewLoader interface {
	LoadView(ctx context.Context) (*core.View, error)
}

// Config holds configuration for the server.
type Config struct {
	Loader        ViewLoader
	Levels        []core.Level
	PageSize      int
	Port          int
	Watch         bool
	WatchDir      string
	SessionSecret string
	Logger        *slog.Logger
}

// Server serves the registry browser.
type Server struct {
	loader       ViewLoader
	levels       []core.Level
	pageSize     int
	port         int
	watch        bool
	watchDir     string
	logger       *slog.Logger
	sessionStore *sessions.CookieStore
	sessions     *registry
	notifier     *notifier.Notifier

	mu   sync.RWMutex
	view *core.View
}

// New creates a server and composes the initial view.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = browser.DefaultPageSize
	}
	if len(cfg.Levels) == 0 {
		cfg.Levels = []core.Level{core.LevelGroup, core.LevelState, core.LevelCreatedYear, core.LevelCreatedMonth}
	}

	view, err := cfg.Loader.LoadView(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	return &Server{
		loader:       cfg.Loader,
		levels:       cfg.Levels,
		pageSize:     cfg.PageSize,
		port:         cfg.Port,
		watch:        cfg.Watch && cfg.WatchDir != "",
		watchDir:     cfg.WatchDir,
		logger:       logger,
		sessionStore: newCookieStore(cfg.SessionSecret),
		sessions:     newRegistry(browser.WithPageSize(cfg.PageSize), browser.WithLogger(logger)),
		notifier:     notifier.New(),
		view:         view,
	}, nil
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	s.routes(r)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// RowCount returns the number of rows in the composed view.
func (s *Server) RowCount() int {
	return s.composed().Len()
}

func (s *Server) composed() *core.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Reload recomposes the registry, swaps it into every session and notifies
// SSE listeners. On error the previous view stays in place.
func (s *Server) Reload(ctx context.Context) error {
	view, err := s.loader.LoadView(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.view = view
	s.mu.Unlock()

	s.sessions.reload(view)
	gen := s.notifier.Broadcast()
	s.logger.Info("registry reloaded", "rows", view.Len(), "generation", gen)
	return nil
}
