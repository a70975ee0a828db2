package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mail-routing-engine/internal/metrics"
	"mail-routing-engine/internal/model"
	"mail-routing-engine/internal/store"
)

// Dispatcher is the single entry point for inbound events: it logs
// receipt, resolves the routing config, runs the selected action handler
// and records the terminal status. It exclusively owns the email log
// lifecycle.
type Dispatcher struct {
	configs  *store.ConfigStore
	audit    *store.AuditStore
	handlers map[model.Action]ActionHandler
	metrics  *metrics.Metrics
}

// NewDispatcher creates a dispatcher over the closed action set.
func NewDispatcher(configs *store.ConfigStore, audit *store.AuditStore, handlers map[model.Action]ActionHandler, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		configs:  configs,
		audit:    audit,
		handlers: handlers,
		metrics:  m,
	}
}

// Route processes one inbound event to completion. It always returns a
// definite RouteResult; the error return is reserved for storage-layer
// unavailability, where the engine can no longer guarantee an audit trail.
func (d *Dispatcher) Route(ctx context.Context, event *InboundEvent) (*RouteResult, error) {
	started := time.Now()
	defer func() {
		d.metrics.RouteDuration.Observe(time.Since(started).Seconds())
	}()

	if event.MessageID == "" {
		event.MessageID = uuid.NewString()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}

	d.metrics.EventsReceived.Inc()

	headers, err := event.EncodeHeaders()
	if err != nil {
		return nil, err
	}

	entry := &model.EmailLog{
		MessageID:   event.MessageID,
		FromAddress: event.From,
		ToAddress:   event.To,
		Subject:     event.Subject,
		ReceivedAt:  event.ReceivedAt,
		Size:        len(event.Body),
		Headers:     headers,
		Status:      model.EmailStatusReceived,
	}
	if err := d.audit.CreateEmailLog(entry); err != nil {
		return nil, fmt.Errorf("audit store unavailable: %w", err)
	}

	cfg, err := d.configs.Get(event.To)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("config store unavailable: %w", err)
		}
		if err := d.audit.MarkEmailLogStatus(entry.ID, model.EmailStatusFailed); err != nil {
			return nil, fmt.Errorf("audit store unavailable: %w", err)
		}
		d.metrics.EventsFailed.WithLabelValues("address_not_configured").Inc()
		logrus.WithFields(logrus.Fields{
			"message_id": event.MessageID,
			"to":         event.To,
		}).Warn("No routing config for address")
		return &RouteResult{Success: false, Error: ErrAddressNotConfigured}, nil
	}

	outcome := d.execute(ctx, event, cfg, entry.ID)

	status := model.EmailStatusProcessed
	if !outcome.Success {
		status = model.EmailStatusFailed
	}
	if err := d.audit.MarkEmailLogStatus(entry.ID, status); err != nil {
		return nil, fmt.Errorf("audit store unavailable: %w", err)
	}

	if outcome.Success {
		d.metrics.EventsProcessed.WithLabelValues(string(cfg.Action)).Inc()
	} else {
		d.metrics.EventsFailed.WithLabelValues("handler_failure").Inc()
	}

	logrus.WithFields(logrus.Fields{
		"message_id": event.MessageID,
		"to":         event.To,
		"action":     cfg.Action,
		"status":     status,
	}).Info("Routed inbound event")

	return &RouteResult{
		Success: outcome.Success,
		Action:  cfg.Action,
		Details: outcome.Details,
	}, nil
}

// execute runs the handler for cfg.Action with a recovery boundary: a
// handler panic becomes a failed outcome, never a fault crossing Route.
func (d *Dispatcher) execute(ctx context.Context, event *InboundEvent, cfg *model.RoutingConfig, emailLogID uint) (outcome ActionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"message_id": event.MessageID,
				"action":     cfg.Action,
			}).Errorf("Action handler panicked: %v", r)
			outcome = ActionOutcome{
				Success: false,
				Details: map[string]interface{}{"error": fmt.Sprintf("handler panic: %v", r)},
			}
		}
	}()

	handler, ok := d.handlers[cfg.Action]
	if !ok {
		// Persisted configs are validated, so this indicates a wiring bug.
		return ActionOutcome{
			Success: false,
			Details: map[string]interface{}{"error": fmt.Sprintf("no handler for action %q", cfg.Action)},
		}
	}

	return handler.Execute(ctx, event, cfg, emailLogID)
}
