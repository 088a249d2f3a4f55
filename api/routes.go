package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/byteshifted/mailpanel/api/handlers"
	"github.com/byteshifted/mailpanel/api/middleware"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, s *services.Services, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	apiHandlers := handlers.InitHandlers(s)

	// Health check endpoint (no auth required)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-MAILPANEL-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group behind the gateway: service API key plus verified user identity
	api := r.Group("/api")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.IdentityMiddleware())
	api.Use(middleware.CustomContextMiddleware())
	api.Use(middleware.TracingMiddleware())
	{
		auth := api.Group("/auth")
		{
			auth.GET("/user", apiHandlers.Users.CurrentUser())
		}

		domains := api.Group("/domains")
		{
			domains.GET("", apiHandlers.Domains.List())
			domains.POST("", apiHandlers.Domains.Create())
			domains.DELETE("/:id", apiHandlers.Domains.Delete())
		}

		mailboxes := api.Group("/mailboxes")
		{
			mailboxes.GET("", apiHandlers.Mailboxes.List())
			mailboxes.POST("", apiHandlers.Mailboxes.Create())
			mailboxes.PATCH("/:id", apiHandlers.Mailboxes.Update())
			mailboxes.DELETE("/:id", apiHandlers.Mailboxes.Delete())
			mailboxes.POST("/:id/reset-password", apiHandlers.Mailboxes.ResetPassword())
			mailboxes.GET("/:id/usage", apiHandlers.Mailboxes.Usage())
		}

		aliases := api.Group("/aliases")
		{
			aliases.GET("", apiHandlers.Aliases.List())
			aliases.POST("", apiHandlers.Aliases.Create())
			aliases.PATCH("/:id", apiHandlers.Aliases.Update())
			aliases.DELETE("/:id", apiHandlers.Aliases.Delete())
		}

		api.GET("/stats", apiHandlers.Users.Stats())
	}
}
