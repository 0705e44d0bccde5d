package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stackbridge/internal/bridge"
	"stackbridge/internal/invocations"
	"stackbridge/internal/services/health"
	"stackbridge/internal/shared/config"
	"stackbridge/internal/shared/metrics"
	"stackbridge/internal/shared/server/middleware"
)

const (
	rateGroupEngine = "ENGINE"
	rateGroupRead   = "READ"
)

// RouterDeps holds handler dependencies for route registration.
type RouterDeps struct {
	Config             config.Config
	HealthHandler      *health.Handler
	BridgeHandler      *bridge.Handler
	InvocationsHandler *invocations.Handler
	RateLimiter        *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(api)
	}

	ai := api.Group("/ai")
	ai.Use(middleware.RateLimit(rateLimitConfig(deps.Config, deps.RateLimiter)))
	if deps.BridgeHandler != nil {
		deps.BridgeHandler.RegisterRoutes(ai)
	}
	if deps.InvocationsHandler != nil {
		deps.InvocationsHandler.RegisterRoutes(ai)
	}

	return r
}

// rateLimitConfig buckets engine-spawning POSTs separately from reads, which
// are mostly answered from cache and get a looser rule.
func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		rules[rateGroupEngine] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
		rules[rateGroupRead] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS * 4, Burst: cfg.RateLimitBurst * 2}
	}
	return middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: rateGroupRead,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost {
				return rateGroupEngine
			}
			return rateGroupRead
		},
		Limiter: limiter,
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
