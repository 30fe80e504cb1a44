package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskboard/tracker/internal/api/middleware"
	"github.com/taskboard/tracker/internal/core/domain"
)

// ctxIdentity returns the identity injected by the Auth middleware. Its
// absence means the route was mounted outside the protected group.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.Identity(c)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// pathID parses the :id route parameter as a UUID and returns it in
// canonical form.
func pathID(c echo.Context, invalidMsg string) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, invalidMsg)
	}
	return id.String(), nil
}

// bindAndValidate decodes the JSON body into req and runs the registered
// validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
