package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/internal/document"
	"certledger/internal/issuance"
	"certledger/internal/ledger"
	"certledger/internal/registry"
	"certledger/internal/storage"
	"certledger/pkg/requestcontext"
)

const adminIdentity = "0xadmin"

func newIssuanceRouter(t *testing.T, caller string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(ledger.New(adminIdentity), logger, nil)
	svc := issuance.New(reg, storage.NewMemory(), document.NewRenderer("Mills College of Jewelry"), logger, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(requestcontext.WithCallerID(req.Context(), caller)))
		})
	})
	New(svc, logger).Register(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIssueAndRevokeViaHandlers(t *testing.T) {
	router := newIssuanceRouter(t, adminIdentity)

	rec := postJSON(t, router, "/certificates", map[string]string{
		"student_name": "Alice Johnson",
		"course_name":  "Stonesetting I",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var issued struct {
		ID           uint64 `json:"id"`
		ContentHash  string `json:"content_hash"`
		RetrievalURL string `json:"retrieval_url"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&issued))
	assert.Equal(t, uint64(1), issued.ID)
	assert.NotEmpty(t, issued.ContentHash)
	assert.Contains(t, issued.RetrievalURL, storage.GatewayBase)

	revokeReq := httptest.NewRequest(http.MethodPost, "/certificates/1/revoke", nil)
	revokeRec := httptest.NewRecorder()
	router.ServeHTTP(revokeRec, revokeReq)
	assert.Equal(t, http.StatusOK, revokeRec.Code)
}

func TestIssueRejectsUnauthorizedCaller(t *testing.T) {
	router := newIssuanceRouter(t, "0xstranger")

	rec := postJSON(t, router, "/certificates", map[string]string{
		"student_name": "Alice Johnson",
		"course_name":  "Stonesetting I",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueValidatesBody(t *testing.T) {
	router := newIssuanceRouter(t, adminIdentity)

	rec := postJSON(t, router, "/certificates", map[string]string{"student_name": "Alice Johnson"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueDuplicateIsConflict(t *testing.T) {
	router := newIssuanceRouter(t, adminIdentity)
	payload := map[string]string{
		"student_name": "Alice Johnson",
		"course_name":  "Stonesetting I",
	}

	require.Equal(t, http.StatusCreated, postJSON(t, router, "/certificates", payload).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, router, "/certificates", payload).Code)
}

func TestRevokeRejectsBadID(t *testing.T) {
	router := newIssuanceRouter(t, adminIdentity)

	req := httptest.NewRequest(http.MethodPost, "/certificates/abc/revoke", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokeUnknownIDIsNotFound(t *testing.T) {
	router := newIssuanceRouter(t, adminIdentity)

	req := httptest.NewRequest(http.MethodPost, "/certificates/42/revoke", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
