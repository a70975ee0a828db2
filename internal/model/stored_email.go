package model

import (
	"time"
)

// StoredEmail is one durably archived event, written by the store action.
// Rows are immutable once created.
type StoredEmail struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID   string    `json:"message_id" gorm:"type:varchar(255);not null;index"`
	FromAddress string    `json:"from" gorm:"type:varchar(255);not null"`
	ToAddress   string    `json:"to" gorm:"type:varchar(255);not null"`
	Subject     string    `json:"subject" gorm:"type:varchar(998)"`
	RawContent  string    `json:"raw_content" gorm:"type:text"`
	ReceivedAt  time.Time `json:"received_at"`
	ConfigID    string    `json:"config_id" gorm:"type:varchar(36);index"`
}

// TableName specifies the table name for StoredEmail
func (StoredEmail) TableName() string {
	return "stored_emails"
}
