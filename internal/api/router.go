package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/wholesalehub/sessiongate/internal/api/handler"
	"github.com/wholesalehub/sessiongate/internal/api/middleware"
	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

// Deps are the services and probes the router serves.
type Deps struct {
	Auth         ports.AuthService
	Verification ports.VerificationService
	JWTSecret    string
	Health       map[string]handler.Pinger
	// LoginRate limits login and registration attempts per client IP per
	// second. Zero disables the limiter.
	LoginRate  float64
	LoginBurst int
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "profile_service",
		Registerer: deps.Registerer,
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	verificationHandler := handler.NewVerificationHandler(deps.Verification)
	healthHandler := handler.NewHealthHandler(deps.Health)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	var limited []echo.MiddlewareFunc
	if deps.LoginRate > 0 {
		burst := deps.LoginBurst
		if burst <= 0 {
			burst = 1
		}
		limited = append(limited, middleware.NewRateLimiter(rate.Limit(deps.LoginRate), burst).Middleware())
	}

	// --- Auth routes ---
	e.POST("/register/:role", authHandler.Register, limited...)
	e.POST("/login/:role", authHandler.Login, limited...)
	e.GET("/profile/:role", authHandler.Profile, authMiddleware, middleware.MatchPathRole("role"))

	// --- Verification ---
	e.POST("/verification/submit", verificationHandler.Submit, authMiddleware, middleware.RBAC(domain.RoleSeller))

	admin := e.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.POST("/sellers/:id/verification/approve", verificationHandler.Approve)
	admin.POST("/sellers/:id/verification/reject", verificationHandler.Reject)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health" || c.Request().URL.Path == "/metrics"
		},
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
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
