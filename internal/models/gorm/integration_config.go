package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	gormlib "gorm.io/gorm"
)

// IntegrationConfig stores a tenant's PMS connection. ConfigData holds the
// (encrypted) credential blob.
type IntegrationConfig struct {
	ID              string            `gorm:"column:id;primaryKey;size:36"`
	TenantID        string            `gorm:"column:tenant_id;size:36;not null;uniqueIndex:uq_integration_tenant,priority:1"`
	IntegrationType string            `gorm:"column:integration_type;type:varchar(32);not null;uniqueIndex:uq_integration_tenant,priority:2"`
	ConfigData      datatypes.JSONMap `gorm:"column:config_data"`
	IsActive        bool              `gorm:"column:is_active;not null;default:false"`
	LastSyncAt      *time.Time        `gorm:"column:last_sync_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (IntegrationConfig) TableName() string {
	return "integration_configs"
}

func (c *IntegrationConfig) BeforeCreate(tx *gormlib.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
