package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mail-routing-engine/internal/engine"
)

// SubmitEvent accepts one inbound event and routes it. The routing verdict
// is always in the response body; a non-200 status is reserved for
// malformed requests and storage-layer unavailability.
func (h *Handlers) SubmitEvent(c *gin.Context) {
	var req InboundEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	event := &engine.InboundEvent{
		MessageID: req.MessageID,
		From:      req.From,
		To:        req.To,
		Subject:   req.Subject,
		Body:      req.Body,
		Headers:   req.Headers,
	}

	result, err := h.dispatcher.Route(c.Request.Context(), event)
	if err != nil {
		logrus.Errorf("Routing failed at the storage layer: %v", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "storage_unavailable",
			Message: "Audit or config storage is unavailable",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
