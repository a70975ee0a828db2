package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"mail-routing-engine/internal/metrics"
	"mail-routing-engine/internal/model"
	"mail-routing-engine/internal/store"
)

// Sender delivers one event to one forward target.
type Sender interface {
	Send(ctx context.Context, event *InboundEvent, target string) error
}

// ForwardHandler fans an event out to every target of a forward config.
// Targets are processed in list order and independently: one failure does
// not abort the others, and the outcome succeeds iff at least one target
// was delivered.
type ForwardHandler struct {
	audit   *store.AuditStore
	sender  Sender
	metrics *metrics.Metrics
}

// NewForwardHandler creates the forward action handler.
func NewForwardHandler(audit *store.AuditStore, sender Sender, m *metrics.Metrics) *ForwardHandler {
	return &ForwardHandler{audit: audit, sender: sender, metrics: m}
}

// Execute implements ActionHandler.
func (h *ForwardHandler) Execute(ctx context.Context, event *InboundEvent, cfg *model.RoutingConfig, emailLogID uint) ActionOutcome {
	var succeeded, failed []string

	for _, target := range cfg.Targets {
		entry := &model.ForwardLog{
			EmailLogID: emailLogID,
			ForwardTo:  target,
			Status:     model.ForwardStatusPending,
		}
		if err := h.audit.CreateForwardLog(entry); err != nil {
			logrus.Errorf("Failed to create forward log for %s: %v", target, err)
			failed = append(failed, target)
			h.metrics.ForwardAttempts.WithLabelValues("failure").Inc()
			continue
		}

		if err := h.sender.Send(ctx, event, target); err != nil {
			logrus.WithFields(logrus.Fields{
				"message_id": event.MessageID,
				"target":     target,
			}).Warnf("Forward failed: %v", err)
			if lerr := h.audit.ResolveForwardLog(entry.ID, model.ForwardStatusFailed, err.Error()); lerr != nil {
				logrus.Errorf("Failed to resolve forward log %d: %v", entry.ID, lerr)
			}
			failed = append(failed, target)
			h.metrics.ForwardAttempts.WithLabelValues("failure").Inc()
			continue
		}

		if lerr := h.audit.ResolveForwardLog(entry.ID, model.ForwardStatusSent, ""); lerr != nil {
			logrus.Errorf("Failed to resolve forward log %d: %v", entry.ID, lerr)
		}
		succeeded = append(succeeded, target)
		h.metrics.ForwardAttempts.WithLabelValues("success").Inc()
	}

	return ActionOutcome{
		Success: len(succeeded) > 0,
		Details: map[string]interface{}{
			"succeeded": succeeded,
			"failed":    failed,
		},
	}
}
