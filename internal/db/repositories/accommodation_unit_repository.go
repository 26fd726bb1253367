package repositories

import (
	"context"
	"fmt"

	gormModels "innpilot/reservation-sync/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccommodationUnitRepo handles the tenant's room inventory
type AccommodationUnitRepo struct {
	db *gorm.DB
}

func NewAccommodationUnitRepo(db *gorm.DB) *AccommodationUnitRepo {
	return &AccommodationUnitRepo{db: db}
}

// Upsert inserts or updates a unit from the PMS inventory
// ON CONFLICT (tenant_id, motopress_type_id) DO UPDATE
func (r *AccommodationUnitRepo) Upsert(ctx context.Context, unit *gormModels.AccommodationUnit) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "motopress_type_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"name", "status", "capacity", "metadata", "updated_at"}),
		}).
		Create(unit).Error
}

// TypeIndex maps every PMS room-type id of a tenant to its unit id
func (r *AccommodationUnitRepo) TypeIndex(ctx context.Context, tenantID string) (map[int]string, error) {
	var units []gormModels.AccommodationUnit

	err := r.db.WithContext(ctx).
		Select("id", "motopress_type_id").
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&units).Error

	if err != nil {
		return nil, fmt.Errorf("failed to load unit type index: %w", err)
	}

	index := make(map[int]string, len(units))
	for _, u := range units {
		if _, seen := index[u.MotoPressTypeID]; !seen {
			index[u.MotoPressTypeID] = u.ID
		}
	}
	return index, nil
}

// ListByTenant returns a tenant's units ordered by name
func (r *AccommodationUnitRepo) ListByTenant(ctx context.Context, tenantID string) ([]gormModels.AccommodationUnit, error) {
	var units []gormModels.AccommodationUnit

	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&units).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}
