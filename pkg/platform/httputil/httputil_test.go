package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "certledger/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "journal write failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("duplicate content maps to conflict with description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeDuplicateContent, "content hash already registered"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "duplicate_content" {
			t.Fatalf("expected error code duplicate_content, got %q", body["error"])
		}
		if body["error_description"] != "content hash already registered" {
			t.Fatalf("expected precondition text in description, got %q", body["error_description"])
		}
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeInvalidInput:     http.StatusBadRequest,
		dErrors.CodeUnauthorized:     http.StatusUnauthorized,
		dErrors.CodeForbidden:        http.StatusForbidden,
		dErrors.CodeNotFound:         http.StatusNotFound,
		dErrors.CodeDuplicateContent: http.StatusConflict,
		dErrors.CodeAlreadyRevoked:   http.StatusConflict,
		dErrors.CodeTimeout:          http.StatusGatewayTimeout,
		dErrors.CodeUnavailable:      http.StatusServiceUnavailable,
		dErrors.CodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Errorf("ToHTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}
