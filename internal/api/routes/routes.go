// Package routes defines the HTTP routes for the chat widget bridge.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/axiumai/chat-widget/internal/api/handlers"
	"github.com/axiumai/chat-widget/internal/api/middleware"
)

// BasePath prefixes every route.
const BasePath = "/api/v1/widget"

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler        *handlers.HealthHandler
	ConversationsHandler *handlers.ConversationsHandler
	AuthMiddleware       *middleware.AuthMiddleware
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	v1 := r.Group(BasePath)
	{
		// Health check routes (no auth required)
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		// Creating a conversation issues its token
		v1.POST("/conversations", cfg.ConversationsHandler.CreateConversation)

		// Everything under a conversation requires its token
		conversation := v1.Group("/conversations/:" + middleware.ConversationIDParam)
		conversation.Use(cfg.AuthMiddleware.Authenticate())
		{
			conversation.GET("", cfg.ConversationsHandler.GetConversation)
			conversation.DELETE("", cfg.ConversationsHandler.DeleteConversation)
			conversation.POST("/messages", cfg.ConversationsHandler.SendMessage)
			conversation.POST("/reset", cfg.ConversationsHandler.ResetConversation)
			conversation.GET("/events", cfg.ConversationsHandler.StreamEvents)
		}
	}

	r.HandleMethodNotAllowed = true
	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware, cors middleware.CORSConfig) {
	// Apply global middleware
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(middleware.NewCORSMiddleware(cors))

	// Setup routes
	Setup(r, cfg)
}
