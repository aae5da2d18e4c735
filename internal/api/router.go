package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/lifelink/coordination-api/docs"
	"github.com/lifelink/coordination-api/internal/api/handler"
	"github.com/lifelink/coordination-api/internal/api/middleware"
	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

const serviceName = "lifelink"

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	DB        *mongo.Database
	Redis     *redis.Client
	Auth      ports.AuthService
	Workflow  ports.WorkflowService
	JWTSecret string
	Log       zerolog.Logger

	// Metrics receives the HTTP collectors and backs /metrics. Defaults to
	// the global Prometheus registry.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Metrics != nil {
		registerer, gatherer = deps.Metrics, deps.Metrics
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Tracing(serviceName))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  serviceName,
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	// Renders errors, so the status seen by the collectors above is final.
	e.Use(requestLogger(deps.Log))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Workflow routes ---
	// Route RBAC reads the token role; the coordinator re-checks the stored profile.
	var (
		donorOnly        = middleware.RBAC(domain.RoleDonor)
		recipientOnly    = middleware.RBAC(domain.RoleRecipient)
		recipientOrAdmin = middleware.RBAC(domain.RoleRecipient, domain.RoleAdmin)
		donorOrAdmin     = middleware.RBAC(domain.RoleDonor, domain.RoleAdmin)
		profileHandler   = handler.NewProfileHandler(deps.Workflow)
		requestHandler   = handler.NewRequestHandler(deps.Workflow)
		interestHandler  = handler.NewInterestHandler(deps.Workflow)
		adminHandler     = handler.NewAdminHandler(deps.Workflow)
	)

	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret))

	v1.GET("/profile", profileHandler.Get)
	v1.PATCH("/profile", profileHandler.Update)
	v1.GET("/dashboard", profileHandler.Dashboard)

	v1.POST("/requests", requestHandler.Create, recipientOnly)
	v1.GET("/requests/mine", requestHandler.Mine, recipientOnly)
	v1.GET("/requests/open", requestHandler.Open, donorOrAdmin)
	v1.GET("/requests/:id", requestHandler.Get)
	v1.PATCH("/requests/:id/status", requestHandler.SetStatus, recipientOrAdmin)

	v1.POST("/requests/:id/interests", interestHandler.Express, donorOnly)
	v1.GET("/requests/:id/interests", interestHandler.ListForRequest, recipientOrAdmin)
	v1.GET("/interests/mine", interestHandler.Mine, donorOnly)
	v1.PATCH("/interests/:id/status", interestHandler.SetStatus)

	admin := v1.Group("/admin", middleware.RBAC(domain.RoleAdmin))
	admin.GET("/profiles", adminHandler.Profiles)
	admin.GET("/requests", adminHandler.Requests)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
