package model

import (
	"time"
)

// EmailLogStatus is the lifecycle of one processed event. Received is the
// initial state; Processed and Failed are terminal.
type EmailLogStatus string

const (
	EmailStatusReceived  EmailLogStatus = "received"
	EmailStatusProcessed EmailLogStatus = "processed"
	EmailStatusFailed    EmailLogStatus = "failed"
)

// EmailLog is the per-event audit row. One row is appended per inbound
// event at receipt and mutated exactly once when processing finishes.
type EmailLog struct {
	ID          uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID   string         `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	FromAddress string         `json:"from" gorm:"type:varchar(255);not null"`
	ToAddress   string         `json:"to" gorm:"type:varchar(255);not null;index"`
	Subject     string         `json:"subject" gorm:"type:varchar(998)"`
	ReceivedAt  time.Time      `json:"received_at" gorm:"index"`
	Size        int            `json:"size"`
	Headers     string         `json:"headers" gorm:"type:text"`
	Status      EmailLogStatus `json:"status" gorm:"type:varchar(50);not null"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

// TableName specifies the table name for EmailLog
func (EmailLog) TableName() string {
	return "email_logs"
}
