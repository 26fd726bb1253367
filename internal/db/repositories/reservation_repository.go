package repositories

import (
	"context"
	"errors"
	"fmt"

	gormModels "innpilot/reservation-sync/internal/models/gorm"

	"gorm.io/gorm"
)

// UpsertAction says whether an upsert inserted or updated the reservation
type UpsertAction string

const (
	ActionCreated UpsertAction = "created"
	ActionUpdated UpsertAction = "updated"
)

// UpsertResult is the outcome of a reservation upsert
type UpsertResult struct {
	Action UpsertAction
	ID     string
}

// ReservationRepo persists canonical reservations and their room line items
type ReservationRepo struct {
	db *gorm.DB
}

func NewReservationRepo(db *gorm.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

// Upsert writes one reservation keyed by (tenant_id, external_booking_id).
// On update only sync-owned columns are overwritten; compliance columns are
// filled only where still NULL. Line items are always replaced.
func (r *ReservationRepo) Upsert(ctx context.Context, res *gormModels.Reservation, accommodations []gormModels.ReservationAccommodation) (*UpsertResult, error) {
	var result UpsertResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing gormModels.Reservation
		err := tx.Select("id").
			Where("tenant_id = ? AND external_booking_id = ?", res.TenantID, res.ExternalBookingID).
			Take(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(res).Error; err != nil {
				return fmt.Errorf("insert reservation: %w", err)
			}
			result = UpsertResult{Action: ActionCreated, ID: res.ID}

		case err != nil:
			return fmt.Errorf("lookup reservation: %w", err)

		default:
			if err := tx.Model(&gormModels.Reservation{}).
				Where("id = ?", existing.ID).
				Updates(res.SyncOwnedValues()).Error; err != nil {
				return fmt.Errorf("update reservation: %w", err)
			}

			for column, value := range res.ComplianceValues() {
				if value == nil {
					continue
				}
				if err := tx.Model(&gormModels.Reservation{}).
					Where("id = ? AND "+column+" IS NULL", existing.ID).
					Update(column, *value).Error; err != nil {
					return fmt.Errorf("fill %s: %w", column, err)
				}
			}

			if err := tx.Where("reservation_id = ?", existing.ID).
				Delete(&gormModels.ReservationAccommodation{}).Error; err != nil {
				return fmt.Errorf("clear accommodations: %w", err)
			}

			res.ID = existing.ID
			result = UpsertResult{Action: ActionUpdated, ID: existing.ID}
		}

		if len(accommodations) == 0 {
			return nil
		}

		rows := make([]gormModels.ReservationAccommodation, len(accommodations))
		for i, acc := range accommodations {
			acc.ID = ""
			acc.ReservationID = result.ID
			rows[i] = acc
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert accommodations: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByExternalID returns nil when the reservation does not exist
func (r *ReservationRepo) FindByExternalID(ctx context.Context, tenantID, externalID string) (*gormModels.Reservation, error) {
	var res gormModels.Reservation

	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_booking_id = ?", tenantID, externalID).
		First(&res).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &res, nil
}

// GetAccommodations lists the line items of a reservation
func (r *ReservationRepo) GetAccommodations(ctx context.Context, reservationID string) ([]gormModels.ReservationAccommodation, error) {
	var rows []gormModels.ReservationAccommodation

	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get accommodations: %w", err)
	}
	return rows, nil
}

// CountByTenant counts a tenant's reservations
func (r *ReservationRepo) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.Reservation{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// ListUnlinkedAccommodations returns a tenant's line items with no unit yet
func (r *ReservationRepo) ListUnlinkedAccommodations(ctx context.Context, tenantID string) ([]gormModels.ReservationAccommodation, error) {
	var rows []gormModels.ReservationAccommodation

	err := r.db.WithContext(ctx).
		Table("reservation_accommodations AS ra").
		Select("ra.*").
		Joins("JOIN guest_reservations gr ON gr.id = ra.reservation_id").
		Where("gr.tenant_id = ? AND ra.accommodation_unit_id IS NULL", tenantID).
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked accommodations: %w", err)
	}
	return rows, nil
}

// LinkAccommodation sets the unit on a line item that is still unlinked
func (r *ReservationRepo) LinkAccommodation(ctx context.Context, rowID, unitID string) error {
	return r.db.WithContext(ctx).
		Model(&gormModels.ReservationAccommodation{}).
		Where("id = ? AND accommodation_unit_id IS NULL", rowID).
		Update("accommodation_unit_id", unitID).Error
}

// BackfillReservationUnits copies the first linked line item's unit onto
// reservations that still have none
func (r *ReservationRepo) BackfillReservationUnits(ctx context.Context, tenantID string) (int64, error) {
	const query = `
		UPDATE guest_reservations
		SET accommodation_unit_id = (
			SELECT ra.accommodation_unit_id FROM reservation_accommodations ra
			WHERE ra.reservation_id = guest_reservations.id AND ra.accommodation_unit_id IS NOT NULL
			ORDER BY ra.created_at ASC
			LIMIT 1
		)
		WHERE tenant_id = ?
		  AND accommodation_unit_id IS NULL
		  AND EXISTS (
			SELECT 1 FROM reservation_accommodations ra
			WHERE ra.reservation_id = guest_reservations.id AND ra.accommodation_unit_id IS NOT NULL
		  )
	`

	result := r.db.WithContext(ctx).Exec(query, tenantID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to backfill reservation units: %w", result.Error)
	}
	return result.RowsAffected, nil
}
