package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// EngineConfig carries what NewEngine needs to build the middleware stack
type EngineConfig struct {
	Logger    *zap.Logger
	HTTP      config.HTTPConfig
	Swagger   config.SwaggerConfig
	Tracing   middleware.TracingConfig
	Profiling bool

	// MeterProvider may be nil, which disables HTTP metrics
	MeterProvider *telemetry.MeterProvider
	// Limiter backs the API wide rate limit when HTTP.RateLimitEnabled is set
	Limiter middleware.Limiter
	// SwaggerAuth guards the docs when Swagger.RequireAuth is set
	SwaggerAuth gin.HandlerFunc
	// Health is also served at the root for load balancer probes
	Health gin.HandlerFunc
}

// NewEngine creates a gin engine with the middleware stack applied in order:
//  1. RequestID - generate or propagate the request ID
//  2. Recovery - catch panics
//  3. Logger - log requests
//  4. Tracing - otelgin span, request attributes, error status
//  5. Metrics and profiling labels
//  6. Security headers
//  7. CORS
//  8. BodyLimit
//  9. RateLimit (if enabled)
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())

	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: cfg.MeterProvider,
		Enabled:       cfg.MeterProvider != nil,
	}))
	if cfg.Profiling {
		engine.Use(middleware.Profiling())
	}

	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    middleware.DefaultCORSConfig().ExposeHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	if cfg.HTTP.RateLimitEnabled && cfg.Limiter != nil {
		engine.Use(middleware.RateLimit(cfg.Limiter, middleware.ClientIPKey, log))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health)
	}

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, cfg.SwaggerAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	return engine
}
