// Package httptransport assembles the HTTP API: route registration,
// middleware ordering, health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certledger/internal/identity"
	issuancehandler "certledger/internal/issuance/handler"
	"certledger/internal/platform/middleware"
	registryhandler "certledger/internal/registry/handler"
	verificationhandler "certledger/internal/verification/handler"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
)

// HealthChecker reports the health of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Issuance     issuancehandler.Service
	Registry     registryhandler.Service
	Verification verificationhandler.Service
	Identity     *identity.Service
	TokenTTL     time.Duration
	Logger       *slog.Logger

	// Optional backing dependencies surfaced through /healthz.
	Checks map[string]HealthChecker
}

// NewRouter wires all endpoints. Mutating certificate and issuer routes
// require a bearer token; verification and reads are public.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	registryH := registryhandler.New(deps.Registry, deps.Logger)
	verificationH := verificationhandler.New(deps.Verification, deps.Logger)

	// Public surface: reads and verification.
	registryH.Register(r)
	verificationH.Register(r)

	// Authenticated surface: issuance, revocation, issuer administration.
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(deps.Identity, deps.Logger))
		issuancehandler.New(deps.Issuance, deps.Logger).Register(g)
		registryH.RegisterAdmin(g)
	})

	r.Post("/auth/token", handleToken(deps.Identity, deps.TokenTTL))
	r.Get("/healthz", handleHealth(deps.Checks))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// TokenRequest is the JSON body of POST /auth/token.
type TokenRequest struct {
	Identity string `json:"identity"`
}

// handleToken mints a bearer token for the given identity. Possession of a
// token grants nothing by itself: the ledger's authorization table decides
// what the identity may do.
func handleToken(svc *identity.Service, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TokenRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		if !govalidator.StringLength(req.Identity, "1", "255") {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity is required"))
			return
		}

		token, err := svc.Mint(req.Identity, ttl)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"token":      token,
			"expires_in": int(ttl.Seconds()),
		})
	}
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		detail := make(map[string]string, len(checks)+1)
		detail["status"] = "ok"
		for name, check := range checks {
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				detail["status"] = "degraded"
				detail[name] = err.Error()
				continue
			}
			detail[name] = "ok"
		}
		httputil.WriteJSON(w, status, detail)
	}
}
