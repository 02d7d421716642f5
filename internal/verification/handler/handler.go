// Package handler exposes the verification engine over HTTP. Documents
// arrive as multipart uploads for single checks and as base64 payloads for
// batches.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"certledger/internal/verification"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
	"certledger/pkg/requestcontext"
)

// maxDocumentBytes bounds uploaded document size.
const maxDocumentBytes = 10 << 20

// Service defines the verification operations the handler needs.
type Service interface {
	VerifyByID(ctx context.Context, id uint64) (verification.Result, error)
	VerifyDocument(ctx context.Context, uploaded []byte, candidateID *uint64) (verification.Result, error)
	VerifyBatch(ctx context.Context, candidates []verification.Candidate) ([]verification.Result, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/id", h.HandleVerifyByID)
	r.Post("/verify/document", h.HandleVerifyDocument)
	r.Post("/verify/batch", h.HandleVerifyBatch)
}

// VerifyByIDRequest is the JSON body of POST /verify/id.
type VerifyByIDRequest struct {
	ID uint64 `json:"id"`
}

// HandleVerifyByID handles POST /verify/id.
func (h *Handler) HandleVerifyByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifyByIDRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.ID == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "certificate ID must be a positive integer"))
		return
	}

	result, err := h.service.VerifyByID(ctx, req.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleVerifyDocument handles POST /verify/document. The document travels as
// the multipart file field "document"; the optional form value
// "certificate_id" enables the stored-content comparison on a hash miss.
func (h *Handler) HandleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, candidateID, err := parseDocumentUpload(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.VerifyDocument(ctx, doc, candidateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "document verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// BatchCandidate is one entry in a POST /verify/batch body. Document bytes
// are base64 in JSON.
type BatchCandidate struct {
	Document []byte  `json:"document"`
	ID       *uint64 `json:"id,omitempty"`
}

// VerifyBatchRequest is the JSON body of POST /verify/batch.
type VerifyBatchRequest struct {
	Candidates []BatchCandidate `json:"candidates"`
}

// maxBatchSize bounds how many documents one batch request may carry.
const maxBatchSize = 50

// HandleVerifyBatch handles POST /verify/batch.
func (h *Handler) HandleVerifyBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifyBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(req.Candidates) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "candidates are required"))
		return
	}
	if len(req.Candidates) > maxBatchSize {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "batch size exceeds %d", maxBatchSize))
		return
	}

	candidates := make([]verification.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		candidates[i] = verification.Candidate{Document: c.Document, ID: c.ID}
	}

	results, err := h.service.VerifyBatch(ctx, candidates)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

func parseDocumentUpload(r *http.Request) ([]byte, *uint64, error) {
	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "expected multipart form with a document file")
	}

	file, _, err := r.FormFile("document")
	if err != nil {
		return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "document file is required")
	}
	defer file.Close()

	doc, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes+1))
	if err != nil {
		return nil, nil, dErrors.Wrap(dErrors.CodeBadRequest, "failed to read document", err)
	}
	if len(doc) > maxDocumentBytes {
		return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "document exceeds size limit")
	}

	var candidateID *uint64
	if raw := r.FormValue("certificate_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "certificate_id must be a positive integer")
		}
		candidateID = &id
	}
	return doc, candidateID, nil
}
