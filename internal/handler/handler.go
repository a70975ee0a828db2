package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mail-routing-engine/internal/engine"
	"mail-routing-engine/internal/store"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db         *gorm.DB
	dispatcher *engine.Dispatcher
	configs    *store.ConfigStore
	audit      *store.AuditStore
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, dispatcher *engine.Dispatcher, configs *store.ConfigStore, audit *store.AuditStore) *Handlers {
	return &Handlers{
		db:         db,
		dispatcher: dispatcher,
		configs:    configs,
		audit:      audit,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/events", h.SubmitEvent)

		api.GET("/configs", h.ListConfigs)
		api.POST("/configs", h.PutConfig)
		api.GET("/configs/:address", h.GetConfig)
		api.DELETE("/configs/:address", h.DeleteConfig)

		api.GET("/logs", h.GetEmailLogs)
		api.GET("/logs/webhooks", h.GetWebhookLogs)
		api.GET("/logs/forwards", h.GetForwardLogs)

		api.GET("/debug", h.GetDebugSnapshot)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
	}

	if err := h.db.Raw("SELECT 1").Error; err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
