package store

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mail-routing-engine/internal/model"
)

// ConfigStore persists routing configs, keyed by destination address.
type ConfigStore struct {
	db *gorm.DB
}

// NewConfigStore creates a config store over the given database.
func NewConfigStore(db *gorm.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// ConfigParams is the caller-supplied part of a routing config. The store
// assigns ID and CreatedAt.
type ConfigParams struct {
	Address     string
	Action      model.Action
	Targets     []string
	WebhookURL  string
	IncludeBody bool
}

// Put validates params and persists a routing config for params.Address,
// overwriting any existing record. The replacement happens in one
// transaction so readers never observe a half-written config. A fresh ID
// and CreatedAt are assigned on every call.
func (s *ConfigStore) Put(params ConfigParams) (*model.RoutingConfig, error) {
	if verr := validateParams(params); verr != nil {
		return nil, verr
	}

	cfg := &model.RoutingConfig{
		ID:          uuid.NewString(),
		Address:     params.Address,
		Action:      params.Action,
		Targets:     params.Targets,
		WebhookURL:  params.WebhookURL,
		IncludeBody: params.IncludeBody,
		CreatedAt:   time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("address = ?", params.Address).Delete(&model.RoutingConfig{}).Error; err != nil {
			return err
		}
		return tx.Create(cfg).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store routing config: %w", err)
	}

	return cfg, nil
}

// Get returns the routing config for address, or ErrNotFound.
func (s *ConfigStore) Get(address string) (*model.RoutingConfig, error) {
	var cfg model.RoutingConfig
	result := s.db.Where("address = ?", address).First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &cfg, nil
}

// Delete removes the routing config for address. Deleting an absent
// address is not an error.
func (s *ConfigStore) Delete(address string) error {
	if err := s.db.Where("address = ?", address).Delete(&model.RoutingConfig{}).Error; err != nil {
		return fmt.Errorf("failed to delete routing config: %w", err)
	}
	return nil
}

// List returns all routing configs.
func (s *ConfigStore) List() ([]model.RoutingConfig, error) {
	var configs []model.RoutingConfig
	if err := s.db.Order("address").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list routing configs: %w", err)
	}
	return configs, nil
}

// Count returns the number of routing configs.
func (s *ConfigStore) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&model.RoutingConfig{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count routing configs: %w", err)
	}
	return n, nil
}

func validateParams(params ConfigParams) *ValidationError {
	if _, err := mail.ParseAddress(params.Address); err != nil {
		return &ValidationError{Field: "address", Reason: "must be a valid email address"}
	}
	if !params.Action.Valid() {
		return &ValidationError{Field: "action", Reason: "must be one of forward, webhook, store"}
	}

	switch params.Action {
	case model.ActionForward:
		if len(params.Targets) == 0 {
			return &ValidationError{Field: "targets", Reason: "at least one forward target is required"}
		}
		for _, target := range params.Targets {
			if _, err := mail.ParseAddress(target); err != nil {
				return &ValidationError{Field: "targets", Reason: fmt.Sprintf("invalid target address %q", target)}
			}
		}
	case model.ActionWebhook:
		u, err := url.Parse(params.WebhookURL)
		if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return &ValidationError{Field: "webhook_url", Reason: "must be an absolute http or https URL"}
		}
	}

	return nil
}
