package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"mail-routing-engine/internal/model"
	"mail-routing-engine/internal/store"
)

// PutConfig creates or overwrites the routing config for an address.
// This is the only place request-level validation happens; the dispatcher
// trusts persisted configs.
func (h *Handlers) PutConfig(c *gin.Context) {
	var req RoutingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	cfg, err := h.configs.Put(store.ConfigParams{
		Address:     req.Address,
		Action:      model.Action(req.Action),
		Targets:     req.Targets,
		WebhookURL:  req.WebhookURL,
		IncludeBody: req.IncludeBody,
	})
	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_config",
				Message: fmt.Sprintf("%s: %s", verr.Field, verr.Reason),
				Code:    http.StatusBadRequest,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to store config",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

// ListConfigs returns all routing configs
func (h *Handlers) ListConfigs(c *gin.Context) {
	configs, err := h.configs.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch configs",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, configs)
}

// GetConfig returns the routing config for one address
func (h *Handlers) GetConfig(c *gin.Context) {
	address := c.Param("address")

	cfg, err := h.configs.Get(address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "No routing config for address",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch config",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// DeleteConfig removes the routing config for one address. Deleting an
// unknown address is a success.
func (h *Handlers) DeleteConfig(c *gin.Context) {
	address := c.Param("address")

	if err := h.configs.Delete(address); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to delete config",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
