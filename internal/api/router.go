package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/taskboard/tracker/internal/api/handler"
	"github.com/taskboard/tracker/internal/api/middleware"
	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

// Deps collects everything the router needs. Services are built by the
// caller so the router stays free of storage concerns.
type Deps struct {
	Log         zerolog.Logger
	APIPrefix   string
	CORSOrigins []string

	Auth     ports.AuthService
	Issuer   ports.TokenIssuer
	Verifier ports.TokenVerifier
	Projects ports.ProjectService
	Tasks    ports.TaskService

	// Readiness lists the dependencies pinged by /health/ready, by name.
	Readiness map[string]handler.Pinger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Metrics())
	if len(d.CORSOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: d.CORSOrigins,
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
				echo.HeaderAuthorization,
				"Idempotency-Key",
			},
		}))
	}

	// --- Health probes and tooling (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness, d.Log)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Issuer)
	projectHandler := handler.NewProjectHandler(d.Projects)
	taskHandler := handler.NewTaskHandler(d.Tasks)
	authMiddleware := middleware.Auth(d.Verifier, d.Log)

	prefix := d.APIPrefix
	if prefix == "/" {
		prefix = ""
	}
	api := e.Group(prefix)

	// --- Auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", authHandler.Me, authMiddleware)

	// --- Owner-scoped data ---
	protected := api.Group("", authMiddleware, middleware.RBAC(domain.RoleUser, domain.RoleAdmin))

	protected.GET("/projects", projectHandler.List)
	protected.POST("/projects", projectHandler.Create)
	protected.GET("/projects/:id", projectHandler.Get)
	protected.PUT("/projects/:id", projectHandler.Update)
	protected.DELETE("/projects/:id", projectHandler.Delete)
	protected.GET("/projects/:id/tasks", projectHandler.Tasks)

	protected.GET("/tasks", taskHandler.List)
	protected.POST("/tasks", taskHandler.Create)
	protected.GET("/tasks/:id", taskHandler.Get)
	protected.PUT("/tasks/:id", taskHandler.Update)
	protected.DELETE("/tasks/:id", taskHandler.Delete)

	return e
}
