package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/routedesk/logistics-api/docs"
	"github.com/routedesk/logistics-api/internal/api/handler"
	"github.com/routedesk/logistics-api/internal/api/middleware"
	"github.com/routedesk/logistics-api/internal/core/ports"
)

// Dependencies are the services and probes the router wires into handlers.
type Dependencies struct {
	Users  ports.UserService
	Orders ports.OrderService
	Admin  ports.AdminAuthenticator
	// Checks feed the readiness probe, keyed by dependency name.
	Checks map[string]handler.Pinger
	// StaticDir, when set, is served at the root.
	StaticDir string
	// Registry receives the HTTP metrics. Defaults to the global registry.
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "logistics",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	userHandler := handler.NewUserHandler(deps.Users)
	orderHandler := handler.NewOrderHandler(deps.Orders)
	adminHandler := handler.NewAdminHandler(deps.Admin)
	healthHandler := handler.NewHealthHandler(deps.Checks)

	// --- Users ---
	e.POST("/users", userHandler.Create)
	e.GET("/users", userHandler.List)
	e.POST("/users/update", userHandler.Update)
	e.GET("/users/export", userHandler.Export)
	e.DELETE("/users/:id", userHandler.Delete)

	// --- Orders ---
	e.POST("/orders", orderHandler.Create)
	e.GET("/orders", orderHandler.List)
	e.PUT("/orders/status", orderHandler.SetStatus)
	e.POST("/orders/status", orderHandler.SetStatus)
	e.GET("/orders/by-driver", orderHandler.ListByDriver)
	e.GET("/orders/:order_id", orderHandler.Get)

	// --- Admin ---
	e.POST("/admin/validate", adminHandler.Validate)

	// --- Ops ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if deps.StaticDir != "" {
		e.Static("/", deps.StaticDir)
	}

	return e
}
