package web

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Varen-6/tabular-viewer-test-task/internal/config"
	"github.com/Varen-6/tabular-viewer-test-task/internal/session"
	mw "github.com/Varen-6/tabular-viewer-test-task/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the upload and preview application.
type Server struct {
	cfg      *config.Config
	sessions *session.Manager
	limiter  *session.Limiter
	router   *chi.Mux
	server   *http.Server
}

// NewServer wires the router, middleware, and routes.
func NewServer(cfg *config.Config, sessions *session.Manager, limiter *session.Limiter) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		limiter:  limiter,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures the shared middleware chain.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Security.RateLimitEnabled {
		limiter := newRateLimiter(s.cfg.Security.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))
		r.Use(s.withSessionCookie)

		// Upload posts get their own, tighter rate limit.
		upload := r
		if s.cfg.Security.RateLimitEnabled {
			rl := newRateLimiter(s.cfg.Security.UploadsPerMinute, time.Minute)
			upload = r.With(rl.middleware)
		}
		upload.Post("/uploads", s.handleUpload)

		r.Get("/uploads", s.handleListUploads)
		r.Get("/uploads/{uploadID}", s.handleGetUpload)
		r.Post("/uploads/{uploadID}/input", s.handleProvideInput)
		r.Get("/uploads/{uploadID}/preview", s.handleGetPreview)
		r.Get("/uploads/{uploadID}/profile", s.handleGetProfile)
		r.Delete("/uploads/{uploadID}", s.handleDismissUpload)

		r.Delete("/session", s.handleEndSession)

		r.Get("/formats", s.handleFormats)
		r.Get("/health", s.handleHealth)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders hardens every response.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// The embedded page carries its script and styles inline.
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}
