package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"mail-routing-engine/internal/metrics"
	"mail-routing-engine/internal/model"
	"mail-routing-engine/internal/store"
)

// maxResponseBody caps how much of a webhook response is kept in the
// audit log.
const maxResponseBody = 64 * 1024

// WebhookHandler delivers an event to a configured endpoint with a single
// synchronous HTTP POST. No retry is performed here; attempt_count exists
// so an external retry driver can reuse the log schema.
type WebhookHandler struct {
	audit     *store.AuditStore
	client    *http.Client
	userAgent string
	metrics   *metrics.Metrics
}

// NewWebhookHandler creates the webhook action handler. The client must
// carry a bounded timeout so an unresponsive endpoint cannot hang a route.
func NewWebhookHandler(audit *store.AuditStore, client *http.Client, userAgent string, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{audit: audit, client: client, userAgent: userAgent, metrics: m}
}

// Execute implements ActionHandler.
func (h *WebhookHandler) Execute(ctx context.Context, event *InboundEvent, cfg *model.RoutingConfig, emailLogID uint) ActionOutcome {
	payload := map[string]interface{}{
		"message_id": event.MessageID,
		"from":       event.From,
		"to":         event.To,
		"subject":    event.Subject,
		"timestamp":  event.ReceivedAt.Format(time.RFC3339),
		"headers":    event.Headers,
	}
	if cfg.IncludeBody {
		payload["body"] = event.Body
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return ActionOutcome{
			Success: false,
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	entry := &model.WebhookLog{
		EmailLogID:   emailLogID,
		WebhookURL:   cfg.WebhookURL,
		Payload:      string(data),
		AttemptCount: 1,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(data))
	if err != nil {
		return h.fail(entry, event, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	now := time.Now()
	entry.DeliveredAt = &now
	if err != nil {
		// Transport-level failure: no response status to capture.
		return h.fail(entry, event, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		respBody = []byte{}
	}

	statusCode := resp.StatusCode
	bodyStr := string(respBody)
	entry.ResponseStatus = &statusCode
	entry.ResponseBody = &bodyStr

	if err := h.audit.CreateWebhookLog(entry); err != nil {
		logrus.Errorf("Failed to create webhook log: %v", err)
	}

	success := statusCode >= 200 && statusCode < 300
	if success {
		h.metrics.WebhookAttempts.WithLabelValues("success").Inc()
	} else {
		h.metrics.WebhookAttempts.WithLabelValues("failure").Inc()
	}

	return ActionOutcome{
		Success: success,
		Details: map[string]interface{}{
			"webhook_url":     cfg.WebhookURL,
			"response_status": statusCode,
		},
	}
}

// fail records a webhook attempt that produced no usable response.
func (h *WebhookHandler) fail(entry *model.WebhookLog, event *InboundEvent, reason string) ActionOutcome {
	if entry.DeliveredAt == nil {
		now := time.Now()
		entry.DeliveredAt = &now
	}
	if err := h.audit.CreateWebhookLog(entry); err != nil {
		logrus.Errorf("Failed to create webhook log: %v", err)
	}
	h.metrics.WebhookAttempts.WithLabelValues("failure").Inc()
	logrus.WithFields(logrus.Fields{
		"message_id":  event.MessageID,
		"webhook_url": entry.WebhookURL,
	}).Warnf("Webhook delivery failed: %s", reason)

	return ActionOutcome{
		Success: false,
		Details: map[string]interface{}{
			"webhook_url": entry.WebhookURL,
			"error":       reason,
		},
	}
}
