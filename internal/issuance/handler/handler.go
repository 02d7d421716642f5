// Package handler wires the issuance workflow to HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"certledger/internal/issuance"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
	"certledger/pkg/requestcontext"
)

// Service defines the issuance operations the handler needs.
type Service interface {
	Issue(ctx context.Context, req issuance.IssueRequest) (issuance.IssueResult, error)
	Revoke(ctx context.Context, id uint64) (issuance.RevokeResult, error)
}

// Handler wires issuance endpoints to the issuance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an issuance handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts issuance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates", h.HandleIssue)
	r.Post("/certificates/{id}/revoke", h.HandleRevoke)
}

// IssueRequest is the JSON body of POST /certificates.
type IssueRequest struct {
	StudentName string `json:"student_name"`
	CourseName  string `json:"course_name"`
}

// HandleIssue handles POST /certificates.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IssueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := validateIssueRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Issue(ctx, issuance.IssueRequest{
		StudentName: req.StudentName,
		CourseName:  req.CourseName,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"student_name", req.StudentName,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleRevoke handles POST /certificates/{id}/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "certificate ID must be a positive integer"))
		return
	}

	result, err := h.service.Revoke(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "revocation failed",
			"request_id", requestcontext.RequestID(ctx),
			"certificate_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func validateIssueRequest(req IssueRequest) error {
	if !govalidator.StringLength(req.StudentName, "1", "255") {
		return dErrors.New(dErrors.CodeInvalidInput, "student_name is required")
	}
	if !govalidator.StringLength(req.CourseName, "1", "255") {
		return dErrors.New(dErrors.CodeInvalidInput, "course_name is required")
	}
	return nil
}
