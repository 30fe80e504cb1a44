package handler

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/tracker/internal/core/domain"
)

const (
	testUserID    = "6f1c2a4e-8d0b-4c1e-9a53-2f7e0b6d9c11"
	testProjectID = "0b8e5a8c-3f5d-4a9e-8c6b-1d2e3f4a5b6c"
	testTaskID    = "a7d9c1e2-5b4f-4c3d-9e8f-7a6b5c4d3e2f"
)

// newTestContext builds an echo context with the real validator. A non-empty
// userID simulates a request that already passed the Auth middleware.
func newTestContext(method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req = req.WithContext(domain.WithIdentity(req.Context(), domain.Identity{UserID: userID, Role: domain.RoleUser}))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func assertHTTPError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
	if msg != "" && !strings.Contains(he.Message.(string), msg) {
		t.Fatalf("expected message containing %q, got %q", msg, he.Message)
	}
}

