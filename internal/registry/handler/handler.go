// Package handler exposes registry reads and issuer administration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"certledger/internal/registry/models"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
	"certledger/pkg/requestcontext"
)

// Service defines the registry operations the handler needs.
type Service interface {
	Authorize(ctx context.Context, identity string) error
	IsAuthorized(ctx context.Context, identity string) (bool, error)
	LookupByID(ctx context.Context, id uint64) (models.Certificate, error)
	Count(ctx context.Context) (uint64, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts read endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/certificates/{id}", h.HandleGetCertificate)
	r.Get("/certificates/count", h.HandleCount)
	r.Get("/issuers/{identity}", h.HandleGetIssuer)
}

// RegisterAdmin mounts the issuer-administration endpoint, which the router
// guards with authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/issuers", h.HandleAuthorize)
}

// HandleGetCertificate handles GET /certificates/{id}.
func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "certificate ID must be a positive integer"))
		return
	}

	cert, err := h.service.LookupByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cert)
}

// HandleCount handles GET /certificates/count.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Count(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"count": count})
}

// AuthorizeRequest is the JSON body of POST /issuers.
type AuthorizeRequest struct {
	Identity string `json:"identity"`
}

// HandleAuthorize handles POST /issuers.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AuthorizeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !govalidator.StringLength(req.Identity, "1", "255") {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity is required"))
		return
	}

	if err := h.service.Authorize(ctx, req.Identity); err != nil {
		h.logger.ErrorContext(ctx, "issuer authorization failed",
			"request_id", requestcontext.RequestID(ctx),
			"identity", req.Identity,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"identity": req.Identity, "authorized": true})
}

// HandleGetIssuer handles GET /issuers/{identity}.
func (h *Handler) HandleGetIssuer(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if identity == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity is required"))
		return
	}

	authorized, err := h.service.IsAuthorized(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"identity": identity, "authorized": authorized})
}
