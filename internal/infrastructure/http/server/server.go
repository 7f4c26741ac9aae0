package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"3tcapital/gstlens/internal/infrastructure/config"
	"3tcapital/gstlens/internal/infrastructure/http/middleware"
)

// Server wires the public HTTP surface of the service.
type Server struct {
	log             *slog.Logger
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// Handlers are the endpoint handlers mounted by the server.
// Root, Health and GSTInfo are public; the rest run behind Auth.
type Handlers struct {
	Root    http.HandlerFunc
	Health  http.HandlerFunc
	Upload  http.HandlerFunc
	GSTInfo http.HandlerFunc
	Login   http.HandlerFunc
	Credits http.HandlerFunc
	History http.HandlerFunc
}

// Options holds what New needs to build the server.
type Options struct {
	Config   config.AppConfig
	Logger   *slog.Logger
	Auth     func(http.Handler) http.Handler
	Handlers Handlers
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Handlers.Health == nil {
		return nil, errors.New("health handler is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("auth middleware is required")
	}

	httpCfg := opts.Config.HTTP

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   httpCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "X-Reservation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	root := opts.Handlers.Root
	if root == nil {
		root = opts.Handlers.Health
	}
	r.Get("/", root)
	r.Get("/health", opts.Handlers.Health)
	mount(r, http.MethodGet, "/gstinfo/{gstin}", opts.Handlers.GSTInfo)

	r.Group(func(r chi.Router) {
		r.Use(opts.Auth)

		mount(r, http.MethodPost, "/login", opts.Handlers.Login)
		mount(r, http.MethodGet, "/credits", opts.Handlers.Credits)
		mount(r, http.MethodGet, "/history", opts.Handlers.History)
		r.With(middleware.RequestTimeout(httpCfg.UploadTimeout)).
			Method(http.MethodPost, "/upload", orUnavailable(opts.Handlers.Upload))
	})

	srv := &http.Server{
		Addr:         httpCfg.Address(),
		Handler:      r,
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
	}

	return &Server{log: opts.Logger, httpServer: srv, shutdownTimeout: httpCfg.ShutdownTimeout}, nil
}

func mount(r chi.Router, method, pattern string, h http.HandlerFunc) {
	r.Method(method, pattern, orUnavailable(h))
}

// orUnavailable keeps optional routes registered so clients get 503 instead of 404.
func orUnavailable(h http.HandlerFunc) http.Handler {
	if h != nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"error","message":"Service unavailable"}` + "\n"))
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		timeout := s.shutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.log.Info("HTTP server shutting down", "timeout", timeout)
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}
