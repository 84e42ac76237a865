package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/bgpvpn/internal/api/handler"
	mw "github.com/edvin/bgpvpn/internal/api/middleware"
	"github.com/edvin/bgpvpn/internal/config"
	"github.com/edvin/bgpvpn/internal/core"
)

const rateLimiterCleanup = 5 * time.Minute

// Store is the database the server runs on. *pgxpool.Pool satisfies it.
type Store interface {
	core.DB
	Ping(ctx context.Context) error
}

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	store       Store
	cfg         *config.Config
	auditLogger *mw.AuditLogger
	rateLimiter *mw.RateLimiter
}

// NewServer wires the API on store. resolver may be nil, in which case
// associated networks and routers are not checked against the network service.
func NewServer(logger zerolog.Logger, store Store, cfg *config.Config, resolver core.Resolver) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    core.NewServices(store, resolver),
		store:       store,
		cfg:         cfg,
		auditLogger: mw.NewAuditLogger(store, logger),
		rateLimiter: mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimiterCleanup),
	}

	if !s.services.Reference.Enabled() {
		logger.Warn().Msg("NETWORK_API_URL not set, network and router references will not be verified")
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.services.APIKey))
		r.Use(s.rateLimiter.Middleware)
		r.Use(s.auditLogger.Middleware)

		// BGPVPNs
		bgpvpn := handler.NewBGPVPN(s.services.BGPVPN, s.services.Reference)
		r.Get("/bgpvpns", bgpvpn.List)
		r.Post("/bgpvpns", bgpvpn.Create)
		r.Get("/bgpvpns/{id}", bgpvpn.Get)
		r.Put("/bgpvpns/{id}", bgpvpn.Update)
		r.Delete("/bgpvpns/{id}", bgpvpn.Delete)
		r.Get("/bgpvpns/{id}/networks", bgpvpn.Networks)
		r.Get("/bgpvpns/{id}/routers", bgpvpn.Routers)

		// Network associations
		networkAssoc := handler.NewNetworkAssociation(s.services.BGPVPN, s.services.Association, s.services.Reference)
		r.Get("/bgpvpns/{id}/network_associations", networkAssoc.List)
		r.Post("/bgpvpns/{id}/network_associations", networkAssoc.Create)
		r.Get("/bgpvpns/{id}/network_associations/{assocID}", networkAssoc.Get)
		r.Delete("/bgpvpns/{id}/network_associations/{assocID}", networkAssoc.Delete)

		// Router associations
		routerAssoc := handler.NewRouterAssociation(s.services.BGPVPN, s.services.Association, s.services.Reference)
		r.Get("/bgpvpns/{id}/router_associations", routerAssoc.List)
		r.Post("/bgpvpns/{id}/router_associations", routerAssoc.Create)
		r.Get("/bgpvpns/{id}/router_associations/{assocID}", routerAssoc.Get)
		r.Delete("/bgpvpns/{id}/router_associations/{assocID}", routerAssoc.Delete)

		// API keys
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin())
			apiKey := handler.NewAPIKey(s.services.APIKey)
			r.Get("/api-keys", apiKey.List)
			r.Post("/api-keys", apiKey.Create)
			r.Delete("/api-keys/{id}", apiKey.Revoke)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.store.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the background workers. Pending audit entries are flushed.
func (s *Server) Close() {
	s.rateLimiter.Close()
	s.auditLogger.Close()
}
