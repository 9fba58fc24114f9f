package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

// HealthHandler reports the status of the service's collaborators
type HealthHandler struct {
	db            *gorm.DB
	cache         interfaces.Cache
	crmConfigured bool
	slackEnabled  bool
	version       string
}

// NewHealthHandler creates a health handler
func NewHealthHandler(db *gorm.DB, cache interfaces.Cache, crmConfigured, slackEnabled bool, version string) *HealthHandler {
	return &HealthHandler{
		db:            db,
		cache:         cache,
		crmConfigured: crmConfigured,
		slackEnabled:  slackEnabled,
		version:       version,
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	services := gin.H{}

	if sqlDB, err := h.db.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
		services["database"] = "healthy"
	} else {
		services["database"] = "unhealthy"
	}

	if _, err := h.cache.Exists(ctx, "health"); err == nil {
		services["cache"] = "healthy"
	} else {
		services["cache"] = "unhealthy"
	}

	if h.crmConfigured {
		services["crm"] = "configured"
	} else {
		services["crm"] = "disconnected"
	}
	if h.slackEnabled {
		services["slack"] = "configured"
	} else {
		services["slack"] = "disconnected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"services":  services,
		"version":   h.version,
	})
}
