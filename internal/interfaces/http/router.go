// Package http wires the gin engine, middleware chain and HTTP server of the
// PriviQ API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PriviQ/internal/interfaces/http/handlers"
	"github.com/turtacn/PriviQ/internal/interfaces/http/middleware"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// APIPrefix is the versioned route group.
const APIPrefix = "/api/v1"

// DefaultMetricsPath is used when RouterConfig.MetricsPath is empty.
const DefaultMetricsPath = "/metrics"

// RouterConfig collects the handlers and middleware settings of the engine.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	Mode string

	Analysis *handlers.AnalysisHandler
	Jobs     *handlers.JobHandler
	Health   *handlers.HealthHandler

	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler http.Handler
	MetricsPath    string

	Logger  logging.Logger
	Metrics *prometheus.AppMetrics

	// RateLimit is nil when limiting is disabled.
	RateLimit      *middleware.RateLimitConfig
	AllowedOrigins []string
	MaxBodySize    int64
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = DefaultMetricsPath
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logging(log, cfg.Metrics),
		middleware.CORS(cfg.AllowedOrigins),
	)
	if cfg.RateLimit != nil {
		rl := *cfg.RateLimit
		rl.SkipPaths = append(append([]string(nil), rl.SkipPaths...), "/healthz", "/readyz", metricsPath)
		r.Use(middleware.NewRateLimiter(rl).Handler())
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"code":       errors.ErrCodeNotFound.String(),
			"message":    "route not found",
			"request_id": middleware.GetRequestID(c),
		}})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": gin.H{
			"code":       errors.ErrCodeBadRequest.String(),
			"message":    "method not allowed",
			"request_id": middleware.GetRequestID(c),
		}})
	})

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(r)
	}
	if cfg.MetricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group(APIPrefix)
	api.Use(middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.Analysis != nil {
		cfg.Analysis.RegisterRoutes(api)
	}
	if cfg.Jobs != nil {
		cfg.Jobs.RegisterRoutes(api)
	}
	return r
}
