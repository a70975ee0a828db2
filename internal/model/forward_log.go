package model

import (
	"time"
)

// ForwardLogStatus tracks one forward target's delivery state.
type ForwardLogStatus string

const (
	ForwardStatusPending ForwardLogStatus = "pending"
	ForwardStatusSent    ForwardLogStatus = "sent"
	ForwardStatusFailed  ForwardLogStatus = "failed"
)

// ForwardLog records one forward attempt for one target of a fan-out.
// A forward config with N targets produces N rows per event.
type ForwardLog struct {
	ID           uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	EmailLogID   uint             `json:"email_log_id" gorm:"not null;index"`
	ForwardTo    string           `json:"forward_to" gorm:"type:varchar(255);not null"`
	Status       ForwardLogStatus `json:"status" gorm:"type:varchar(50);not null"`
	ErrorMessage *string          `json:"error_message,omitempty" gorm:"type:text"`
	SentAt       *time.Time       `json:"sent_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`

	EmailLog *EmailLog `json:"-" gorm:"foreignKey:EmailLogID"`
}

// TableName specifies the table name for ForwardLog
func (ForwardLog) TableName() string {
	return "forward_logs"
}
