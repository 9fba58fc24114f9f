// Package router assembles the HTTP routes.
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/relaydesk/relaydesk/internal/handler"
	"github.com/relaydesk/relaydesk/internal/middleware"
)

// New builds the gin engine with the full middleware chain and routes
func New(chat *handler.ChatHandler, webhooks *handler.WebhookHandler, health *handler.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logging())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Request-ID")
	r.Use(cors.New(corsConfig))

	r.GET("/health", health.Check)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/chat", chat.Chat)
		v1.GET("/chat/history/:user_id", chat.History)
	}

	wh := r.Group("/webhooks")
	{
		wh.POST("/slack", webhooks.Slack)
		wh.POST("/whatsapp", webhooks.WhatsApp)
	}

	return r
}
