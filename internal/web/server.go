// Package web serves the suggestion endpoint and the demo page over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
	"github.com/justestif/go-mood-music/internal/ratelimit"
	"github.com/justestif/go-mood-music/internal/validation"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = ":8080"

	// MaxBodyBytes caps request bodies on the suggestion endpoint.
	MaxBodyBytes = 64 << 10

	shutdownTimeout = 10 * time.Second
)

// Headers browsers may send on cross-origin calls to the suggestion endpoint.
var allowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

var allowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Per-client limits on the suggestion endpoint. Zero values use the
	// ratelimit package defaults.
	RateLimitRPS   float64
	RateLimitBurst int

	TemplatesFS fs.FS
	StaticFS    fs.FS
	Logger      *slog.Logger
}

// Server is the HTTP server for the mood music gateway.
type Server struct {
	router   chi.Router
	server   *http.Server
	limiter  *ratelimit.KeyedRateLimiter
	handlers *Handlers
	logger   *slog.Logger
}

// NewServer creates a new web server answering with gateway.
func NewServer(cfg ServerConfig, gateway Suggester) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		limiter:  ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst),
		handlers: NewHandlers(gateway, validation.New(), templates, logger),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: allowedMethods,
		AllowedHeaders: allowedHeaders,
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	s.router.Get("/", s.handlers.Home)
	s.router.Get("/health", s.handlers.Health)

	s.router.Options("/get-songs-from-emotion", s.handlers.Preflight)
	s.router.With(
		ratelimit.Middleware(s.limiter, s.logger, s.rejectRateLimited),
		bodyLimit(MaxBodyBytes),
	).Post("/get-songs-from-emotion", s.handlers.GetSongsFromEmotion)
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	writeError(w, r, domainerrors.RateLimited("rate limit exceeded"), s.logger)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully once ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.limiter.Stop()
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

func bodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
