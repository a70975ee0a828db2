package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"mail-routing-engine/internal/model"
)

// AuditStore owns the append-mostly audit tables: email logs plus the
// per-action sub-logs. The only mutation it permits is the single
// received -> processed/failed transition of an email log.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates an audit store over the given database.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

// CreateEmailLog appends the receipt row for one inbound event.
func (s *AuditStore) CreateEmailLog(entry *model.EmailLog) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create email log: %w", err)
	}
	return nil
}

// MarkEmailLogStatus transitions an email log from received to the given
// terminal status and stamps processed_at. The transition happens at most
// once; marking a log that already reached a terminal status is an error.
func (s *AuditStore) MarkEmailLogStatus(id uint, status model.EmailLogStatus) error {
	now := time.Now()
	result := s.db.Model(&model.EmailLog{}).
		Where("id = ? AND status = ?", id, model.EmailStatusReceived).
		Updates(map[string]interface{}{"status": status, "processed_at": &now})
	if result.Error != nil {
		return fmt.Errorf("failed to update email log %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("email log %d is not in received state", id)
	}
	return nil
}

// CreateForwardLog appends one pending forward attempt row.
func (s *AuditStore) CreateForwardLog(entry *model.ForwardLog) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create forward log: %w", err)
	}
	return nil
}

// ResolveForwardLog records the outcome of one forward attempt.
func (s *AuditStore) ResolveForwardLog(id uint, status model.ForwardLogStatus, errorMessage string) error {
	updates := map[string]interface{}{"status": status}
	if status == model.ForwardStatusSent {
		now := time.Now()
		updates["sent_at"] = &now
	}
	if errorMessage != "" {
		updates["error_message"] = &errorMessage
	}
	result := s.db.Model(&model.ForwardLog{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to resolve forward log %d: %w", id, result.Error)
	}
	return nil
}

// CreateWebhookLog appends one webhook attempt row.
func (s *AuditStore) CreateWebhookLog(entry *model.WebhookLog) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create webhook log: %w", err)
	}
	return nil
}

// CreateStoredEmail appends one archived event row.
func (s *AuditStore) CreateStoredEmail(entry *model.StoredEmail) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to store email: %w", err)
	}
	return nil
}

// ListEmailLogs returns email logs ordered by received_at descending,
// plus the total row count for pagination.
func (s *AuditStore) ListEmailLogs(limit, offset int) ([]model.EmailLog, int64, error) {
	var total int64
	if err := s.db.Model(&model.EmailLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count email logs: %w", err)
	}

	var logs []model.EmailLog
	if err := s.db.Order("received_at DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list email logs: %w", err)
	}
	return logs, total, nil
}

// ListWebhookLogs returns the most recent webhook attempts.
func (s *AuditStore) ListWebhookLogs(limit int) ([]model.WebhookLog, error) {
	var logs []model.WebhookLog
	if err := s.db.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhook logs: %w", err)
	}
	return logs, nil
}

// ListForwardLogs returns the most recent forward attempts.
func (s *AuditStore) ListForwardLogs(limit int) ([]model.ForwardLog, error) {
	var logs []model.ForwardLog
	if err := s.db.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list forward logs: %w", err)
	}
	return logs, nil
}

// EmailLogStatusCounts returns the number of email logs per status.
func (s *AuditStore) EmailLogStatusCounts() (map[model.EmailLogStatus]int64, error) {
	type row struct {
		Status model.EmailLogStatus
		Count  int64
	}
	var rows []row
	err := s.db.Model(&model.EmailLog{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count email logs by status: %w", err)
	}

	counts := make(map[model.EmailLogStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// Snapshot is an aggregate view over the audit tables, consumed by the
// debug endpoint and the metrics refresher.
type Snapshot struct {
	EmailLogsByStatus  map[model.EmailLogStatus]int64 `json:"email_logs_by_status"`
	WebhookAttempts    int64                          `json:"webhook_attempts"`
	ForwardAttempts    int64                          `json:"forward_attempts"`
	StoredEmails       int64                          `json:"stored_emails"`
	RecentEmailLogs    []model.EmailLog               `json:"recent_email_logs"`
	RecentWebhookLogs  []model.WebhookLog             `json:"recent_webhook_logs"`
	RecentForwardLogs  []model.ForwardLog             `json:"recent_forward_logs"`
	RecentStoredEmails []model.StoredEmail            `json:"recent_stored_emails"`
}

// DebugSnapshot builds an aggregate snapshot with the most recent `recent`
// entries of each sub-log.
func (s *AuditStore) DebugSnapshot(recent int) (*Snapshot, error) {
	snap := &Snapshot{}

	var err error
	if snap.EmailLogsByStatus, err = s.EmailLogStatusCounts(); err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.WebhookLog{}).Count(&snap.WebhookAttempts).Error; err != nil {
		return nil, fmt.Errorf("failed to count webhook logs: %w", err)
	}
	if err := s.db.Model(&model.ForwardLog{}).Count(&snap.ForwardAttempts).Error; err != nil {
		return nil, fmt.Errorf("failed to count forward logs: %w", err)
	}
	if err := s.db.Model(&model.StoredEmail{}).Count(&snap.StoredEmails).Error; err != nil {
		return nil, fmt.Errorf("failed to count stored emails: %w", err)
	}

	if err := s.db.Order("received_at DESC").Limit(recent).Find(&snap.RecentEmailLogs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent email logs: %w", err)
	}
	if err := s.db.Order("id DESC").Limit(recent).Find(&snap.RecentWebhookLogs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent webhook logs: %w", err)
	}
	if err := s.db.Order("id DESC").Limit(recent).Find(&snap.RecentForwardLogs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent forward logs: %w", err)
	}
	if err := s.db.Order("id DESC").Limit(recent).Find(&snap.RecentStoredEmails).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent stored emails: %w", err)
	}

	return snap, nil
}
