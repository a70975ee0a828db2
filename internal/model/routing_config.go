package model

import (
	"time"
)

// Action is the closed set of delivery behaviors a RoutingConfig can select.
type Action string

const (
	ActionForward Action = "forward"
	ActionWebhook Action = "webhook"
	ActionStore   Action = "store"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionForward, ActionWebhook, ActionStore:
		return true
	}
	return false
}

// RoutingConfig determines what happens to an inbound event addressed to
// Address. Exactly one config exists per address; overwriting assigns a
// fresh ID and CreatedAt.
type RoutingConfig struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Address     string    `json:"address" gorm:"type:varchar(255);not null;uniqueIndex"`
	Action      Action    `json:"action" gorm:"type:varchar(50);not null"`
	Targets     []string  `json:"targets,omitempty" gorm:"serializer:json;type:text"`
	WebhookURL  string    `json:"webhook_url,omitempty" gorm:"type:varchar(500)"`
	IncludeBody bool      `json:"include_body,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for RoutingConfig
func (RoutingConfig) TableName() string {
	return "routing_configs"
}
