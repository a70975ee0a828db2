package handler

import (
	"time"

	"mail-routing-engine/internal/engine"
)

// InboundEventRequest is the event submission payload.
type InboundEventRequest struct {
	MessageID string          `json:"message_id"`
	From      string          `json:"from" binding:"required"`
	To        string          `json:"to" binding:"required"`
	Subject   string          `json:"subject"`
	Body      string          `json:"body"`
	Headers   []engine.Header `json:"headers"`
}

// RoutingConfigRequest creates or overwrites the routing config for an
// address.
type RoutingConfigRequest struct {
	Address     string   `json:"address" binding:"required"`
	Action      string   `json:"action" binding:"required,oneof=forward webhook store"`
	Targets     []string `json:"targets"`
	WebhookURL  string   `json:"webhook_url"`
	IncludeBody bool     `json:"include_body"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
