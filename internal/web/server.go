// Package web serves the dashboard pages and the JSON API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/config"
	"github.com/JonMunkholm/FeedStatus/internal/core"
	mw "github.com/JonMunkholm/FeedStatus/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP front end for a core.Service.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	limiters []*rateLimiter
}

// NewServer builds the router. Close releases the rate limiters.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	if cfg.Upload.Timeout > s.server.WriteTimeout {
		s.server.WriteTimeout = cfg.Upload.Timeout
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
//
// Visitors can read both datasets. Everything that changes data, and the
// activity log, sits behind the admin flag. Uploads get the longer upload
// timeout; every other route gets the request timeout.
func (s *Server) setupRoutes() {
	requestTimeout := middleware.Timeout(s.cfg.Server.RequestTimeout)
	uploadTimeout := middleware.Timeout(s.cfg.Upload.Timeout)
	uploads := s.limit(s.cfg.Rate.UploadLimit)
	logins := s.limit(s.cfg.Rate.LoginLimit)

	s.router.Group(func(r chi.Router) {
		r.Use(requestTimeout)
		r.Get("/", s.handleHome)
		r.Get("/products", s.handlePublicDataset(core.DatasetProduct))
		r.Get("/ecommerce", s.handlePublicDataset(core.DatasetECommerce))
		r.Get("/healthz", s.handleHealth)

		r.Get("/login", s.handleLoginForm)
		r.With(logins).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Use(mw.RequireAdmin)

		r.Group(func(r chi.Router) {
			r.Use(requestTimeout)
			r.Get("/log", s.handleLogPage)
			r.Get("/log/download", s.handleLogDownload)
			r.Post("/log/clear", s.handleLogClearForm)

			r.Get("/{dataset}", s.handleAdminDataset)
			r.Get("/{dataset}/new", s.handleNewRecordForm)
			r.Post("/{dataset}/records", s.handleAddRecordForm)
			r.Get("/{dataset}/records/{id}/edit", s.handleEditRecordForm)
			r.Post("/{dataset}/records/{id}", s.handleUpdateRecordForm)
			r.Post("/{dataset}/records/{id}/delete", s.handleDeleteRecordForm)
		})

		r.Group(func(r chi.Router) {
			r.Use(uploadTimeout, uploads)
			r.Post("/{dataset}/upload", s.handleUploadForm)
			r.Post("/{dataset}/preview", s.handlePreviewForm)
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requestTimeout)
			r.Get("/datasets", s.handleListDatasets)
			r.Get("/uploads/status", s.handleUploadStatus)
			r.Get("/{dataset}", s.handleQuery)
			r.Get("/{dataset}/export", s.handleExport)
			r.Get("/{dataset}/{id}", s.handleGetRecord)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Post("/{dataset}", s.handleAddRecord)
				r.Put("/{dataset}/{id}", s.handleUpdateRecord)
				r.Patch("/{dataset}/{id}", s.handleUpdateRecord)
				r.Delete("/{dataset}/{id}", s.handleDeleteRecord)

				r.Get("/log", s.handleLogList)
				r.Get("/log/download", s.handleLogDownload)
				r.Delete("/log", s.handleLogClear)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin, uploadTimeout, uploads)
			r.Post("/{dataset}/upload", s.handleUpload)
			r.Post("/{dataset}/preview", s.handlePreview)
		})
	})
}

// limit returns a per-IP limiter middleware, or a pass-through when rate
// limiting is off or perMinute is not positive.
func (s *Server) limit(perMinute int) func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled || perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newRateLimiter(perMinute, time.Minute).middleware
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	slog.Info("server listening", "addr", ln.Addr().String())
	return s.server.Serve(ln)
}

// Shutdown stops accepting connections, waits for in-flight requests and
// then for running ingestions.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.Close()
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.service.WaitForUploads(ctx)
}

// Close stops the rate limiters' cleanup goroutines.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.stop()
	}
	s.limiters = nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				// Pages carry one inline stylesheet and no scripts.
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter is a fixed-window request counter per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func (s *Server) newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := newRateLimiter(rate, window)
	go rl.cleanup(time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// cleanup drops visitors idle for two windows until stop is called.
func (rl *rateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastReset) > rl.window*2 {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware rate limits by r.RemoteAddr, which TrustedRealIP has already
// resolved.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			respondErrorJSON(w, core.MapError(errRateLimited), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
