package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskboard/tracker/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"project not found", fmt.Errorf("get: %w", domain.ErrProjectNotFound), http.StatusNotFound, "project not found"},
		{"task not found", domain.ErrTaskNotFound, http.StatusNotFound, "task not found"},
		{"invalid reference", domain.ErrInvalidReference, http.StatusBadRequest, "invalid project selection"},
		{"no fields", domain.ErrNoFieldsToUpdate, http.StatusBadRequest, "no valid fields to update"},
		{"validation", domain.ErrValidation, http.StatusBadRequest, "invalid request"},
		{"duplicate", domain.ErrDuplicateIdentity, http.StatusConflict, "email already in use"},
		{"idempotency key in flight", domain.ErrRequestInProgress, http.StatusConflict, "a request with this idempotency key is in progress"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"token error", &domain.TokenError{Reason: domain.TokenExpired}, http.StatusUnauthorized, "authentication required"},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid task id"), http.StatusBadRequest, "invalid task id"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, body.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.String(http.StatusOK, "done")

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Body.String() != "done" {
		t.Fatalf("committed response was rewritten: %q", rec.Body.String())
	}
}
