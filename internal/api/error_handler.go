package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskboard/tracker/internal/api/handler"
	"github.com/taskboard/tracker/internal/api/metrics"
	"github.com/taskboard/tracker/internal/core/domain"
)

type errorResponse = handler.ErrorBody

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, router 404/405, middleware 401/403).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		metrics.OwnershipDenialsTotal.WithLabelValues("not_found").Inc()
		return http.StatusNotFound, "project not found"
	case errors.Is(err, domain.ErrTaskNotFound):
		metrics.OwnershipDenialsTotal.WithLabelValues("not_found").Inc()
		return http.StatusNotFound, "task not found"
	case errors.Is(err, domain.ErrNotFound):
		metrics.OwnershipDenialsTotal.WithLabelValues("not_found").Inc()
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInvalidReference):
		metrics.OwnershipDenialsTotal.WithLabelValues("invalid_reference").Inc()
		return http.StatusBadRequest, domain.ErrInvalidReference.Error()
	case errors.Is(err, domain.ErrNoFieldsToUpdate):
		return http.StatusBadRequest, domain.ErrNoFieldsToUpdate.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return http.StatusConflict, domain.ErrDuplicateIdentity.Error()
	case errors.Is(err, domain.ErrRequestInProgress):
		return http.StatusConflict, domain.ErrRequestInProgress.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, domain.ErrUnauthenticated.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
