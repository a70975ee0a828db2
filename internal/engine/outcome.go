package engine

import (
	"context"

	"mail-routing-engine/internal/model"
)

// ActionOutcome is the typed result of one action handler execution.
type ActionOutcome struct {
	Success bool
	Details map[string]interface{}
}

// RouteResult is the verdict returned to the event submitter. Route always
// produces one, success or not.
type RouteResult struct {
	Success bool                   `json:"success"`
	Action  model.Action           `json:"action,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrAddressNotConfigured is the result error code for events addressed to
// an address with no routing config.
const ErrAddressNotConfigured = "AddressNotConfigured"

// ActionHandler executes one delivery action for an event and its resolved
// config. Implementations own their sub-log rows (forward/webhook/stored
// email) keyed by emailLogID, and never touch the email log itself.
type ActionHandler interface {
	Execute(ctx context.Context, event *InboundEvent, cfg *model.RoutingConfig, emailLogID uint) ActionOutcome
}
