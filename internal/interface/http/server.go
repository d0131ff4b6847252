// Package http implements the REST API for Student Records.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/student"
	"github.com/academic-hub/student-records/internal/infrastructure/metrics"
	"github.com/academic-hub/student-records/internal/interface/http/handlers"
	"github.com/academic-hub/student-records/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of request bodies.
	MaxBodyBytes int64

	// AllowedOrigins - allowed origins for CORS; empty disables CORS.
	AllowedOrigins []string

	// RateLimitPerMinute - requests per minute per IP (0 = disabled).
	RateLimitPerMinute int

	// TrustedProxies - peers whose X-Forwarded-For / X-Real-IP headers are believed.
	TrustedProxies []netip.Prefix

	// APIKeyHeader - header carrying the admin API key.
	APIKeyHeader string

	// AdminKeyHash - bcrypt hash guarding write routes; empty leaves them open.
	AdminKeyHash string

	// Version is reported by the root and health endpoints.
	Version string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxHeaderBytes:     1 << 20, // 1 MB
		MaxBodyBytes:       64 << 10,
		RateLimitPerMinute: 100,
		APIKeyHeader:       "X-API-Key",
		Version:            "v1",
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// StudentService is the student use-case surface the controller drives.
type StudentService interface {
	GetAll(ctx context.Context, locale language.Tag) ([]*student.Student, error)
	GetByID(ctx context.Context, id int64, locale language.Tag) (*student.Student, error)
	Save(ctx context.Context, st *student.Student, groupID int64, locale language.Tag) (*student.Student, error)
	UpdateByID(ctx context.Context, st *student.Student, studentID, groupID int64, locale language.Tag) (*student.Student, error)
	DeleteByID(ctx context.Context, id int64, locale language.Tag) error
}

// GroupService is the group use-case surface the controller drives.
type GroupService interface {
	GetAll(ctx context.Context, locale language.Tag) ([]*group.Group, error)
	GetByID(ctx context.Context, id int64, locale language.Tag) (*group.Group, error)
	Save(ctx context.Context, g *group.Group, locale language.Tag) (*group.Group, error)
}

// LocaleResolver picks the response locale from an Accept-Language header.
type LocaleResolver interface {
	FromAcceptLanguage(header string) language.Tag
}

// RateLimiter decides whether a client may issue one more request.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	Students StudentService
	Groups   GroupService
	Locales  LocaleResolver

	Logger *logger.Logger

	// HealthChecker backs /health and /ready.
	HealthChecker handlers.HealthChecker

	// Metrics and MetricsHandler are optional; /metrics is served when
	// MetricsHandler is set.
	Metrics        *metrics.Collector
	MetricsHandler http.Handler

	// RateLimiter overrides the in-process limiter (e.g. with a Redis one).
	RateLimiter RateLimiter
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
	logger     *logger.Logger

	rateLimiter RateLimiter

	mu      sync.Mutex
	running bool
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		router: mux.NewRouter(),
		logger: deps.Logger,
	}

	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.With(logger.Component("http"))

	if s.deps.HealthChecker == nil {
		s.deps.HealthChecker = handlers.NewCompositeHealthChecker(config.Version, 0)
	}

	if config.RateLimitPerMinute > 0 {
		s.rateLimiter = deps.RateLimiter
		if s.rateLimiter == nil {
			s.rateLimiter = newMemoryRateLimiter(config.RateLimitPerMinute, time.Minute)
		}
	}

	s.setupRoutes()
	s.handler = s.buildMiddlewareChain(s.router)

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.handler,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	if s.deps.Metrics != nil {
		r.Use(s.metricsMiddleware)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/live", s.handleLive).Methods(http.MethodGet)
	if s.deps.MetricsHandler != nil {
		r.Handle("/metrics", s.deps.MetricsHandler).Methods(http.MethodGet)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// API v1
	// ─────────────────────────────────────────────────────────────────────────
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.localeMiddleware)

	api.HandleFunc("/students", s.handleListStudents).Methods(http.MethodGet)
	api.HandleFunc("/students/{id:[0-9]+}", s.handleGetStudent).Methods(http.MethodGet)
	api.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id:[0-9]+}", s.handleGetGroup).Methods(http.MethodGet)

	write := api.NewRoute().Subrouter()
	write.Use(handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes))
	if s.config.AdminKeyHash != "" {
		auth := handlers.NewAPIKeyAuth(s.config.APIKeyHeader, s.config.AdminKeyHash,
			func(w http.ResponseWriter, r *http.Request, code, message string) {
				writeJSONError(w, r, http.StatusUnauthorized, code, message)
			})
		write.Use(auth.Middleware)
	}

	write.HandleFunc("/students", s.handleCreateStudent).Methods(http.MethodPost)
	write.HandleFunc("/students/{id:[0-9]+}", s.handleUpdateStudent).Methods(http.MethodPut)
	write.HandleFunc("/students/{id:[0-9]+}", s.handleDeleteStudent).Methods(http.MethodDelete)
	write.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

