// Package api wires the HTTP surface of the key broker: router setup,
// middleware stack and the mapping from routes to handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/keybroker/internal/api/handler"
	mw "github.com/edvin/keybroker/internal/api/middleware"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/authz"
	"github.com/edvin/keybroker/internal/config"
	"github.com/edvin/keybroker/internal/core"
)

// Server is the broker HTTP API.
type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	resolver *authz.Resolver
	pool     *pgxpool.Pool
	cfg      *config.Config
}

// NewServer builds the API server with all routes and middleware configured.
func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, services *core.Services, resolver *authz.Resolver, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		resolver: resolver,
		pool:     pool,
		cfg:      cfg,
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
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	tenant := handler.NewTenant(s.services.Tenant)
	admin := handler.NewAdmin(s.services.Admin)
	client := handler.NewClient(s.services.Client)
	user := handler.NewUser(s.services.User)
	host := handler.NewHost(s.services.Host)
	enrollment := handler.NewEnrollment(s.services.Enrollment)
	delegation := handler.NewDelegation(s.services.Delegation)
	hostMapping := handler.NewHostMapping(s.services.HostMapping)
	credential := handler.NewCredential(s.services.Credential)
	reservation := handler.NewReservation(s.services.Reservation)

	s.router.Route("/api/v1/tenants/{tenantID}", func(r chi.Router) {
		// Credential issuance and quota updates are open to the owning
		// client and to tenant admins; listing stays admin-only.
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.resolver, authz.KindClientOwn, authz.KindTenantAdmin))
			r.Post("/credentials", credential.Issue)
			r.Put("/credentials", credential.UpdateQuota)
		})
		r.With(mw.Auth(s.resolver, authz.KindTenantAdmin)).
			Get("/credentials", credential.List)

		// Reservations can be placed by the client itself, by the host
		// agent observing the connection, or by an admin.
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.resolver, authz.KindClientOwn, authz.KindTenantAdmin, authz.KindHostAgent))
			r.Post("/reservations", reservation.Create)
			r.Post("/reservations/{resID}/extensions", reservation.Extend)
		})
		r.With(mw.Auth(s.resolver, authz.KindTenantAdmin)).
			Get("/reservations", reservation.List)
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.resolver, authz.KindClientOwn, authz.KindTenantAdmin))
			r.Delete("/reservations/{resID}", reservation.Delete)
			r.Delete("/reservations/{resID}/related", reservation.DeleteRelated)
		})

		// Users may read their own record; everything else under the
		// tenant is admin territory.
		r.With(mw.Auth(s.resolver, authz.KindTenantAdmin, authz.KindUserSelf)).
			Get("/users/{userID}", user.Get)

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.resolver, authz.KindTenantAdmin))

			r.Get("/", tenant.Get)
			r.Put("/", tenant.Update)
			r.Delete("/", tenant.Delete)

			r.Post("/admins", admin.Create)
			r.Get("/admins", admin.List)
			r.Get("/admins/{adminID}", admin.Get)
			r.Put("/admins/{adminID}", admin.Update)
			r.Delete("/admins/{adminID}", admin.Delete)

			r.Post("/clients", client.Create)
			r.Get("/clients", client.List)
			r.Get("/clients/{clientID}", client.Get)
			r.Put("/clients/{clientID}", client.Update)
			r.Delete("/clients/{clientID}", client.Delete)

			r.Post("/users", user.Create)
			r.Get("/users", user.List)
			r.Put("/users/{userID}", user.Update)
			r.Delete("/users/{userID}", user.Delete)

			r.Post("/hosts", host.Create)
			r.Get("/hosts", host.List)
			r.Get("/hosts/{host}", host.Get)
			r.Put("/hosts/{host}", host.Update)
			r.Delete("/hosts/{host}", host.Delete)

			r.Post("/enrollments", enrollment.Create)
			r.Get("/enrollments", enrollment.List)
			r.Get("/enrollments/{userID}", enrollment.Get)
			r.Put("/enrollments/{userID}", enrollment.Update)
			r.Delete("/enrollments/{userID}", enrollment.Delete)

			r.Post("/delegations", delegation.Create)
			r.Get("/delegations", delegation.List)
			r.Get("/delegations/{clientID}/{userID}", delegation.Get)
			r.Delete("/delegations/{clientID}/{userID}", delegation.Delete)

			r.Post("/host-mappings", hostMapping.Create)
			r.Get("/host-mappings", hostMapping.List)
			r.Get("/host-mappings/{userID}/{host}/{hostAccount}", hostMapping.Get)
			r.Delete("/host-mappings/{userID}/{host}/{hostAccount}", hostMapping.Delete)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("readiness check failed: database unreachable")
		response.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
