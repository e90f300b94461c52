// Package v1 wires the HTTP API.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"posada/internal/core/tenant"
	"posada/internal/domain/audit"
	"posada/internal/domain/auth"
	"posada/internal/domain/stays"
	"posada/internal/infrastructure/http/v1/handlers"
	"posada/internal/infrastructure/http/v1/middleware"
	"posada/internal/infrastructure/storage/postgres"
	"posada/pkg/logger"
	"posada/pkg/numerator"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	TenantManager *tenant.Manager
	JWTService    *auth.JWTService
	AuditStore    audit.Recorder
	Logger        *logger.Logger
	Version       string
}

// NewRouter builds the gin engine with all routes and middleware.
// Repositories resolve their database through the request context, so
// one service instance serves every tenant.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	if cfg.Logger != nil {
		router.Use(func(c *gin.Context) {
			ctx := logger.WithLogger(c.Request.Context(), cfg.Logger)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
	router.Use(
		middleware.Recovery(),
		middleware.Trace(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)

	authService := auth.NewService(
		postgres.NewUserRepo(),
		cfg.JWTService,
		cfg.AuditStore,
		auth.DefaultServiceConfig(),
	)
	staysService := stays.NewService(
		postgres.NewStayRepo(),
		postgres.NewCheckoutRepo(),
		numerator.NewFromContext(),
		cfg.AuditStore,
		nil, // tx manager comes from request context
	)

	healthHandler := handlers.NewHealthHandler(cfg.TenantManager, cfg.Version)
	authHandler := handlers.NewAuthHandler(authService)
	staysHandler := handlers.NewStaysHandler(staysService)

	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	// Login needs the tenant database but no token yet.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.TenantDB(cfg.TenantManager))
	{
		authGroup.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(
		middleware.TenantDB(cfg.TenantManager),
		middleware.Auth(cfg.JWTService),
	)
	{
		staysGroup := protected.Group("/stays")
		{
			staysGroup.GET("/:id", staysHandler.Get)
			staysGroup.GET("/:id/invoice-preview", staysHandler.InvoicePreview)

			// Closing a stay is a front-desk action; housekeeping
			// accounts can read but never commit.
			staysGroup.POST("/:id/checkout",
				middleware.RequireRole(auth.RoleReception, auth.RoleAdmin),
				staysHandler.Checkout)
		}
	}

	return router
}
