package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/app"
	"github.com/pirouette/studio/internal/handlers"
	"github.com/pirouette/studio/internal/middleware"
	"github.com/pirouette/studio/internal/monitoring"
	"github.com/pirouette/studio/internal/monitoring/checks"
)

// NewRouter builds the Gin engine, wires middleware and registers the session routes.
// A nil rateStore disables rate limiting.
func NewRouter(db *gorm.DB, cfg *app.Config, stack *app.AuthStack, rateStore middleware.RateStore, opts ...handlers.AuthHandlerOption) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if stack == nil {
		return nil, fmt.Errorf("auth stack must be provided")
	}

	authHandler, err := handlers.NewAuthHandler(stack.Users, stack.Validator, stack.Lifecycle, handlers.CookieOptions{
		Secure: cfg.CookieSecure(),
		Domain: strings.TrimSpace(cfg.Auth.Cookies.Domain),
	}, opts...)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	r.Use(middleware.AuditContext())
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF(middleware.CSRFOptions{
			Secure: cfg.CookieSecure(),
			Domain: strings.TrimSpace(cfg.Auth.Cookies.Domain),
			Exempt: []string{logoutPath},
		}))
	}

	registerHealthRoutes(r, db, rateStore)
	registerAuthRoutes(r, authRouteDeps{
		Handler:          authHandler,
		Validator:        stack.Validator,
		MaintenanceToken: cfg.Auth.MaintenanceBearer(),
		RateLimit:        middleware.RateLimit(rateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window),
	})
	registerMetricsRoutes(r, cfg.Monitoring.Prometheus)

	r.NoRoute(middleware.NotFoundHandler)
	r.NoMethod(middleware.MethodNotAllowedHandler)

	return r, nil
}

func registerHealthRoutes(r *gin.Engine, db *gorm.DB, rateStore middleware.RateStore) {
	health := monitoring.NewHealthManager(checks.Database(db, 0))
	if pinger, ok := rateStore.(checks.Pinger); ok {
		health.Register(checks.Redis(pinger, 0))
	}
	r.GET("/health", handlers.Health(health))
}

func registerMetricsRoutes(r *gin.Engine, cfg app.PrometheusConfig) {
	if !cfg.Enabled {
		return
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}
