package gorm

import (
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// ReservationAccommodation is one room line item of a reservation. Rows are
// replaced wholesale whenever the parent reservation is re-synced.
type ReservationAccommodation struct {
	ID                  string    `gorm:"column:id;primaryKey;size:36"`
	ReservationID       string    `gorm:"column:reservation_id;size:36;not null;index"`
	AccommodationUnitID *string   `gorm:"column:accommodation_unit_id;size:36;index"`
	MotoPressTypeID     int       `gorm:"column:motopress_type_id;not null"`
	MotoPressUnitID     int       `gorm:"column:motopress_unit_id;not null"`
	RoomRate            *float64  `gorm:"column:room_rate"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ReservationAccommodation) TableName() string {
	return "reservation_accommodations"
}

func (a *ReservationAccommodation) BeforeCreate(tx *gormlib.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
