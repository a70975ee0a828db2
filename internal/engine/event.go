package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// Header is one email header as received. Headers travel as an ordered
// slice, not a map: names are not guaranteed unique and order matters to
// downstream consumers.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InboundEvent is the normalized representation of one received email,
// independent of how it physically arrived. It is never persisted verbatim
// beyond what the audit log records.
type InboundEvent struct {
	MessageID  string    `json:"message_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Headers    []Header  `json:"headers,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// EncodeHeaders serializes the ordered header list for the audit log.
func (e *InboundEvent) EncodeHeaders() (string, error) {
	if len(e.Headers) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(e.Headers)
	if err != nil {
		return "", fmt.Errorf("failed to encode headers: %w", err)
	}
	return string(data), nil
}

// Serialize returns the full event as JSON, used as the raw content of a
// stored email.
func (e *InboundEvent) Serialize() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to serialize event: %w", err)
	}
	return string(data), nil
}
