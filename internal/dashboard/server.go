// Package dashboard serves the interactive web dashboard.
package dashboard

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/rankboard/internal/board"
	"github.com/KaramelBytes/rankboard/internal/cache"
	"github.com/KaramelBytes/rankboard/internal/dataset"
)

// Config holds configuration for the dashboard server.
type Config struct {
	Addr string
	// DataPath is the bundled dataset shown when no upload is active.
	DataPath string
	// Watch reloads the bundled dataset when the file changes.
	Watch         bool
	SessionSecret string
	CacheSize     int
	MaxUploadMB   int
	Title         string
	Caption       string
	Dataset       dataset.Options
	Board         board.Options
	Logger        *slog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg          Config
	tables       *cache.Tables
	sessionStore *sessions.CookieStore
	logger       *slog.Logger

	mu         sync.Mutex
	bundledKey string
}

// NewServer creates a new dashboard server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	if len(cfg.Board.Rules) == 0 {
		cfg.Board = board.DefaultOptions()
	}
	if len(cfg.Dataset.Encodings) == 0 {
		cfg.Dataset = dataset.DefaultOptions()
	}
	tables, err := cache.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Logger.Warn("no session_secret configured; uploads are forgotten on restart")
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(86400 * 7)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		cfg:          cfg,
		tables:       tables,
		sessionStore: sessionStore,
		logger:       cfg.Logger,
	}, nil
}

// Handler returns the router with every dashboard route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	s.setupRoutes(r)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting dashboard", "addr", s.cfg.Addr, "data", s.cfg.DataPath)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch && s.cfg.DataPath != "" {
		eg.Go(func() error {
			return s.watchBundled(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dashboard...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// bundled returns the bundled dataset, reading the file only when its cached
// table was invalidated or evicted.
func (s *Server) bundled() (*dataset.Table, error) {
	if s.cfg.DataPath == "" {
		return nil, errNoBundled
	}
	s.mu.Lock()
	key := s.bundledKey
	s.mu.Unlock()
	if key != "" {
		if t, ok := s.tables.Lookup(key); ok {
			return t, nil
		}
	}
	data, err := os.ReadFile(s.cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("read bundled dataset: %w", err)
	}
	id := dataset.Identity(data)
	t, err := s.tables.Get(id, func() (*dataset.Table, error) {
		s.logger.Debug("decoding bundled dataset", "path", s.cfg.DataPath, "identity", id[:12])
		return dataset.Read(filepath.Base(s.cfg.DataPath), data, s.cfg.Dataset)
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.bundledKey = id
	s.mu.Unlock()
	return t, nil
}

// forgetBundled drops the cached bundled table so the next request re-reads it.
func (s *Server) forgetBundled() {
	s.mu.Lock()
	key := s.bundledKey
	s.bundledKey = ""
	s.mu.Unlock()
	if key != "" {
		s.tables.Invalidate(key)
	}
}
