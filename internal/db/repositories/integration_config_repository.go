package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	gormModels "innpilot/reservation-sync/internal/models/gorm"

	"gorm.io/gorm"
)

var (
	ErrConfigNotFound = errors.New("integration config not found")
	ErrConfigInactive = errors.New("integration config is not active")
)

// IntegrationConfigRepo reads tenant PMS configurations
type IntegrationConfigRepo struct {
	db *gorm.DB
}

func NewIntegrationConfigRepo(db *gorm.DB) *IntegrationConfigRepo {
	return &IntegrationConfigRepo{db: db}
}

// GetActiveConfig fails with ErrConfigNotFound or ErrConfigInactive
func (r *IntegrationConfigRepo) GetActiveConfig(ctx context.Context, tenantID, integrationType string) (*gormModels.IntegrationConfig, error) {
	var config gormModels.IntegrationConfig

	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND integration_type = ?", tenantID, integrationType).
		First(&config).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get integration config: %w", err)
	}

	if !config.IsActive {
		return nil, ErrConfigInactive
	}

	return &config, nil
}

// ListActiveTenants returns tenants with an active config of the given type
func (r *IntegrationConfigRepo) ListActiveTenants(ctx context.Context, integrationType string) ([]string, error) {
	var tenantIDs []string

	err := r.db.WithContext(ctx).
		Model(&gormModels.IntegrationConfig{}).
		Where("integration_type = ? AND is_active = ?", integrationType, true).
		Pluck("tenant_id", &tenantIDs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}
	return tenantIDs, nil
}

// Create stores a new config
func (r *IntegrationConfigRepo) Create(ctx context.Context, config *gormModels.IntegrationConfig) error {
	if err := r.db.WithContext(ctx).Create(config).Error; err != nil {
		return fmt.Errorf("failed to create integration config: %w", err)
	}
	return nil
}

// TouchLastSync records when the config last completed a sync
func (r *IntegrationConfigRepo) TouchLastSync(ctx context.Context, configID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&gormModels.IntegrationConfig{}).
		Where("id = ?", configID).
		Update("last_sync_at", at).Error
}
