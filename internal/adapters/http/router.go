package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-filter/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-filter/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-filter/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the base logger placed in every request context.
	Logger *slog.Logger

	// ServiceName names the server spans.
	ServiceName string

	// HealthHandler serves the /-/ endpoints. Optional.
	HealthHandler *handlers.HealthHandler

	// RecordsHandler serves the /api/v1 endpoints. Optional.
	RecordsHandler *handlers.RecordsHandler

	// Timeout bounds each API request. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery
//  2. Logger - base logger into the request context
//  3. Request ID and Correlation ID
//  4. OpenTelemetry tracing, then metrics and X-Trace-ID
//  5. Logging (skips /-/ endpoints)
//
// Route groups:
//   - /-/: probes, build info and metrics, no timeout
//   - /api/v1/: normalization and cleaning, with the request timeout
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.Logger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.ServiceName),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.RecordsHandler != nil {
		cfg.RecordsHandler.RegisterRoutes(apiV1)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with the default timeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	serviceName string,
	healthHandler *handlers.HealthHandler,
	recordsHandler *handlers.RecordsHandler,
) RouterConfig {
	return RouterConfig{
		Logger:         logger,
		ServiceName:    serviceName,
		HealthHandler:  healthHandler,
		RecordsHandler: recordsHandler,
		Timeout:        DefaultRequestTimeout,
	}
}
