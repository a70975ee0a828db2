package engine

import (
	"context"

	"mail-routing-engine/internal/metrics"
	"mail-routing-engine/internal/model"
	"mail-routing-engine/internal/store"
)

// StoreHandler archives the full serialized event. The persistence write
// is the action itself, so a write failure is the handler failure.
type StoreHandler struct {
	audit   *store.AuditStore
	metrics *metrics.Metrics
}

// NewStoreHandler creates the store action handler.
func NewStoreHandler(audit *store.AuditStore, m *metrics.Metrics) *StoreHandler {
	return &StoreHandler{audit: audit, metrics: m}
}

// Execute implements ActionHandler.
func (h *StoreHandler) Execute(ctx context.Context, event *InboundEvent, cfg *model.RoutingConfig, emailLogID uint) ActionOutcome {
	raw, err := event.Serialize()
	if err != nil {
		return ActionOutcome{
			Success: false,
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	entry := &model.StoredEmail{
		MessageID:   event.MessageID,
		FromAddress: event.From,
		ToAddress:   event.To,
		Subject:     event.Subject,
		RawContent:  raw,
		ReceivedAt:  event.ReceivedAt,
		ConfigID:    cfg.ID,
	}
	if err := h.audit.CreateStoredEmail(entry); err != nil {
		return ActionOutcome{
			Success: false,
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	return ActionOutcome{
		Success: true,
		Details: map[string]interface{}{"stored_email_id": entry.ID},
	}
}
