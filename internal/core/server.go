// Package core provides the HTTP chassis for the FocusFlow entitlement API.
// It owns the chi router, the global middleware chain, and the response
// envelope, enforcing cross-cutting concerns before requests reach domain
// handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"focusflow/internal/config"
	"focusflow/internal/types"
)

// MetricsCollector records API telemetry. Implementations export request
// latency and count metrics to Prometheus or equivalent backends.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Authenticator resolves a bearer token to the Actor it identifies.
// Injected so tests can substitute a stub for the JWT verifier.
type Authenticator interface {
	VerifyToken(token string) (*types.Actor, error)
}

// RouteRegistrar registers a group of domain routes on the v1 router.
// Handler packages expose one of these; main wires them in. The indirection
// keeps core free of handler imports.
type RouteRegistrar func(r chi.Router)

// Pinger reports backend storage health for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server encapsulates the dependencies of the FocusFlow API, allowing for
// injection during testing and distinct configuration per environment.
type Server struct {
	Config        *config.Config
	Logger        *slog.Logger
	Validator     *Validator
	Metrics       MetricsCollector
	Authenticator Authenticator
	DB            Pinger

	// V1RouteRegistrars is populated by the application entry point before
	// MountRoutes is called.
	V1RouteRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer prepares the server for route mounting. The caller is
// responsible for setting V1RouteRegistrars and calling MountRoutes after
// construction.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}
