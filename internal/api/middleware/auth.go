package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskboard/tracker/internal/api/metrics"
	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

// identityKey is the echo.Context key holding the domain.Identity.
const identityKey = "identity"

// Auth verifies the bearer token and attaches the caller's identity to both
// the echo context and the request context. Every failure yields the same
// 401; the reason is only logged at debug level.
func Auth(verifier ports.TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := verifier.Verify(bearerToken(c.Request().Header.Get(echo.HeaderAuthorization)))
			if err != nil {
				reason := string(domain.TokenClaims)
				var tokErr *domain.TokenError
				if errors.As(err, &tokErr) {
					reason = string(tokErr.Reason)
				}
				metrics.TokenVerificationsTotal.WithLabelValues(reason).Inc()
				log.Debug().
					Str("reason", reason).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Msg("bearer token rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthenticated.Error()).SetInternal(err)
			}

			metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()
			c.Set(identityKey, id)
			c.SetRequest(c.Request().WithContext(domain.WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

// bearerToken returns the credential of a "Bearer <token>" header, or "" when
// the header is absent or uses another scheme.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Identity returns the identity stored by Auth.
func Identity(c echo.Context) (domain.Identity, bool) {
	if id, ok := c.Get(identityKey).(domain.Identity); ok && id.UserID != "" {
		return id, true
	}
	return domain.IdentityFrom(c.Request().Context())
}
