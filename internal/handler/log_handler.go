package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetEmailLogs returns email logs with pagination, newest first.
func (h *Handlers) GetEmailLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, total, err := h.audit.ListEmailLogs(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch logs",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
			"total":  total,
		},
	})
}

// GetWebhookLogs returns the most recent webhook delivery attempts.
func (h *Handlers) GetWebhookLogs(c *gin.Context) {
	limit := parseLimit(c, 50)

	logs, err := h.audit.ListWebhookLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch webhook logs",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetForwardLogs returns the most recent forward delivery attempts.
func (h *Handlers) GetForwardLogs(c *gin.Context) {
	limit := parseLimit(c, 50)

	logs, err := h.audit.ListForwardLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch forward logs",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetDebugSnapshot returns aggregate counts plus the most recent entries
// of each log, for the external presentation layer.
func (h *Handlers) GetDebugSnapshot(c *gin.Context) {
	recent := parseLimit(c, 10)

	snapshot, err := h.audit.DebugSnapshot(recent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to build snapshot",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	totalConfigs, err := h.configs.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to count configs",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_configs": totalConfigs,
		"snapshot":      snapshot,
	})
}

func parseLimit(c *gin.Context, fallback int) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if limit < 1 || limit > 100 {
		limit = fallback
	}
	return limit
}
