package model

import (
	"time"
)

// WebhookLog records one webhook delivery attempt. The handler is
// single-attempt; AttemptCount exists so an external retry driver can
// reuse the schema.
type WebhookLog struct {
	ID             uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	EmailLogID     uint       `json:"email_log_id" gorm:"not null;index"`
	WebhookURL     string     `json:"webhook_url" gorm:"type:varchar(500);not null"`
	Payload        string     `json:"payload" gorm:"type:text"`
	ResponseStatus *int       `json:"response_status,omitempty"`
	ResponseBody   *string    `json:"response_body,omitempty" gorm:"type:text"`
	AttemptCount   int        `json:"attempt_count"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	EmailLog *EmailLog `json:"-" gorm:"foreignKey:EmailLogID"`
}

// TableName specifies the table name for WebhookLog
func (WebhookLog) TableName() string {
	return "webhook_logs"
}
