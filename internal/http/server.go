// Package http serves the khetbook persistence API: JSON over HTTP with
// bearer-token authentication.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"khetbook/internal/auth"
	"khetbook/internal/cache"
	"khetbook/internal/ledger"
	"khetbook/internal/location"
	"khetbook/internal/log"
	"khetbook/internal/middleware/ratelimit"
	"khetbook/internal/middleware/security"
	"khetbook/internal/middleware/trace"
	"khetbook/internal/services"
)

// Deps are the use cases and settings the server is built from.
type Deps struct {
	Auth     *auth.Service
	Ledger   *services.LedgerService
	Crops    *services.CropService
	Profiles *services.ProfileService
	Logger   *log.Logger

	CORSOrigins        []string
	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server

	auth     *auth.Service
	ledger   *services.LedgerService
	crops    *services.CropService
	profiles *services.ProfileService
	logger   *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	// Location tables per display language.
	hierarchies *cache.LRUCache[*location.Hierarchy]
	caches      *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires middleware and routes, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	s := &Server{
		auth:        deps.Auth,
		ledger:      deps.Ledger,
		crops:       deps.Crops,
		profiles:    deps.Profiles,
		logger:      logger,
		detector:    detector,
		tracer:      trace.NewMiddleware(logger, detector.ExtractClientIP),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		hierarchies: cache.NewLRUCache[*location.Hierarchy](8, 24*time.Hour),
		caches:      cache.NewManager(logger),
	}
	s.caches.Register(s.hierarchies)
	s.caches.StartCleanup(context.Background(), time.Hour)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(deps.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{trace.HeaderRequestID},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusTooManyRequests, "too many requests, please try again later")
		}))

		api.Post("/auth/otp", s.handleRequestOTP)
		api.Post("/auth/verify", s.handleVerifyOTP)
		api.Get("/locations", s.handleLocations)

		api.Group(func(pr chi.Router) {
			pr.Use(s.authMiddleware)

			pr.Route("/crops", func(cr chi.Router) {
				cr.Get("/", s.handleListCrops)
				cr.Post("/", s.handleCreateCrop)
				cr.Patch("/{id}/status", s.handleSetCropStatus)
				cr.Delete("/{id}", s.handleDeleteCrop)
			})
			pr.Route("/expenses", s.ledgerRoutes(ledger.KindExpense))
			pr.Route("/incomes", s.ledgerRoutes(ledger.KindIncome))

			pr.Get("/profile", s.handleGetProfile)
			pr.Post("/profile", s.handleCreateProfile)
			pr.Put("/profile", s.handleUpdateProfile)
		})
	})
	return r
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		s.hierarchies.Purge()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
