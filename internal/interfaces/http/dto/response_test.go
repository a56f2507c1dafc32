package dto

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "bookforge-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

func TestFromAppErrorMapsStatusAndMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"token limit", apperrors.ErrTokenLimitExceeded, http.StatusTooManyRequests, "Token limit exceeded. Please upgrade your plan."},
		{"project not found", apperrors.ErrProjectNotFound, http.StatusNotFound, "project not found"},
		{"provider down", apperrors.ErrProviderUnavailable, http.StatusInternalServerError, "no text generation provider available"},
		{"no concept resolvable", apperrors.ErrConceptNotFound, http.StatusBadRequest, "no concept found"},
		{"plain error wrapped", apperrors.Wrap(nil, apperrors.CodeDatabaseError, "boom"), http.StatusInternalServerError, "boom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromAppError(c, tc.err)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Error != tc.wantError {
				t.Errorf("error = %q, want %q", body.Error, tc.wantError)
			}
		})
	}
}

func TestErrorIncludesTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("trace_id", "abc123")

	Error(c, http.StatusBadRequest, "bad input")

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.TraceID != "abc123" {
		t.Errorf("trace_id = %q, want abc123", body.TraceID)
	}
}

func TestNewPageMetaRoundsUp(t *testing.T) {
	meta := NewPageMeta(1, 20, 41)
	if meta.TotalPages != 3 {
		t.Errorf("total_pages = %d, want 3", meta.TotalPages)
	}
}
