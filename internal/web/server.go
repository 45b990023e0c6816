// Package web provides the HTTP server and handlers for the cleanup UI and
// its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/tabclean/internal/config"
	"github.com/JonMunkholm/tabclean/internal/core"
	"github.com/JonMunkholm/tabclean/internal/metrics"
	mw "github.com/JonMunkholm/tabclean/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the cleanup application.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	validate *validator.Validate
	limiter  *mw.RateLimiter
	router   *chi.Mux
}

// NewServer creates a Server. m and gatherer may be nil, in which case no
// request metrics are recorded and /metrics is not served.
func NewServer(service *core.Service, cfg *config.Config, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		metrics:  m,
		gatherer: gatherer,
		validate: newValidator(),
		router:   chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
		s.limiter.OnLimit = func(w http.ResponseWriter, r *http.Request) {
			s.respondUserError(w, r, core.RateLimitMessage(), http.StatusTooManyRequests)
		}
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(mw.Metrics(s.metrics))
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	if s.limiter != nil {
		s.router.Use(s.limiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics.Enabled && s.gatherer != nil {
		s.router.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/", s.handleIndex)
		r.Post("/upload", s.handleUploadForm)
		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Post("/options", s.handleOptionsForm)
			r.Post("/remove", s.handleRemoveForm)
			r.Get("/chart.png", s.handleChart)
			r.Get("/download", s.handleDownload)
		})
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Delete("/session", s.handleAPIEndSession)
			r.Post("/files", s.handleAPIUpload)
			r.Get("/files", s.handleAPIListFiles)
			r.Route("/files/{fileID}", func(r chi.Router) {
				r.Get("/", s.handleAPIGetFile)
				r.Delete("/", s.handleAPIRemoveFile)
				r.Put("/options", s.handleAPISetOptions)
				r.Get("/chart", s.handleChart)
				r.Get("/download", s.handleDownload)
			})
		})
	})
}

// Run listens on the configured address and serves until ctx is
// cancelled. It then calls beforeShutdown (if non-nil) with the shutdown
// context and returns once open requests have drained or the shutdown
// timeout passes.
func (s *Server) Run(ctx context.Context, beforeShutdown func(context.Context)) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return err
	}
	return s.serve(ctx, ln, beforeShutdown)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, beforeShutdown func(context.Context)) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	if s.limiter != nil {
		go s.limiter.Cleanup(ctx, time.Minute, 10*time.Minute)
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", ln.Addr().String())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if beforeShutdown != nil {
		beforeShutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}
