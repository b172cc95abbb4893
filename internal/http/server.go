package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"budgetcast/internal/log"
	"budgetcast/internal/middleware/auth"
	"budgetcast/internal/middleware/ratelimit"
	"budgetcast/internal/middleware/security"
	"budgetcast/internal/middleware/trace"
	"budgetcast/internal/services"
	"budgetcast/internal/storage"
)

// RunLister lists archived forecast runs. *storage.SQLiteRepository
// satisfies it.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]storage.RunSummary, error)
}

// Invalidator drops cached records. *cache.RecordReader satisfies it.
type Invalidator interface {
	Invalidate()
}

// Options configures NewServer. Runs and Records may be nil.
type Options struct {
	Addr               string
	Service            *services.ForecastService
	Runs               RunLister
	Records            Invalidator
	DefaultHorizonDays int
	RateLimitPerMinute int
	// JWTSecret enables bearer token auth on the API routes when set.
	JWTSecret string
	Logger    *log.Logger
}

type Server struct {
	http.Server
	service        *services.ForecastService
	runs           RunLister
	records        Invalidator
	defaultHorizon int
	limiter        *ratelimit.Limiter
	detector       *security.Detector
	logger         *log.Logger
	shutdownOnce   sync.Once
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.DefaultHorizonDays <= 0 {
		opts.DefaultHorizonDays = 30
	}

	s := &Server{
		service:        opts.Service,
		runs:           opts.Runs,
		records:        opts.Records,
		defaultHorizon: opts.DefaultHorizonDays,
		detector:       security.NewDetector(),
		logger:         logger.WithComponent(log.ComponentHTTP),
	}

	r := mux.NewRouter()
	r.Use(
		trace.Middleware,
		log.Middleware(s.logger),
		log.RequestIDMiddleware(trace.FromRequest),
		log.AccessLog,
		s.detector.Middleware(s.logSuspicious),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
	)
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		}))
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleHealth).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	if opts.JWTSecret != "" {
		api.Use(auth.New(opts.JWTSecret).Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected request", log.FieldError, err)
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
		}))
	}
	api.HandleFunc("/forecast", s.handleForecast).Methods(http.MethodGet)
	api.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	api.HandleFunc("/records/refresh", s.handleRefresh).Methods(http.MethodPost)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) logSuspicious(r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request blocked",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
}

// Shutdown stops background helpers and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
	})
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
