package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	gormlib "gorm.io/gorm"
)

// AccommodationUnit is the internal identity of a rentable room type synced
// from the PMS inventory.
type AccommodationUnit struct {
	ID              string            `gorm:"column:id;primaryKey;size:36"`
	TenantID        string            `gorm:"column:tenant_id;size:36;not null;uniqueIndex:uq_unit_type,priority:1"`
	Name            string            `gorm:"column:name;type:varchar(255);not null"`
	MotoPressTypeID int               `gorm:"column:motopress_type_id;not null;uniqueIndex:uq_unit_type,priority:2"`
	MotoPressUnitID int               `gorm:"column:motopress_unit_id"`
	Status          string            `gorm:"column:status;type:varchar(20);not null;default:'active'"`
	Capacity        int               `gorm:"column:capacity;not null;default:0"`
	Metadata        datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (AccommodationUnit) TableName() string {
	return "accommodation_units"
}

func (u *AccommodationUnit) BeforeCreate(tx *gormlib.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
