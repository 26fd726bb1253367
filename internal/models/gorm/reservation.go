package gorm

import (
	"time"

	"innpilot/reservation-sync/internal/constants"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// Reservation is the canonical guest reservation. The compliance block is
// written by the guest check-in workflow and must never be overwritten by a
// PMS sync once it holds a value.
type Reservation struct {
	ID       string `gorm:"column:id;primaryKey;size:36"`
	TenantID string `gorm:"column:tenant_id;size:36;not null;uniqueIndex:uq_reservation_external,priority:1"`

	GuestName    string  `gorm:"column:guest_name;type:varchar(255);not null"`
	GuestEmail   *string `gorm:"column:guest_email;type:varchar(255)"`
	GuestCountry *string `gorm:"column:guest_country;type:varchar(100)"`
	PhoneFull    *string `gorm:"column:phone_full;type:varchar(50)"`
	PhoneLast4   string  `gorm:"column:phone_last_4;type:varchar(4);not null"`

	CheckInDate  time.Time `gorm:"column:check_in_date;type:date;not null"`
	CheckOutDate time.Time `gorm:"column:check_out_date;type:date;not null"`
	CheckInTime  string    `gorm:"column:check_in_time;type:varchar(8);not null;default:'15:00:00'"`
	CheckOutTime string    `gorm:"column:check_out_time;type:varchar(8);not null;default:'12:00:00'"`

	Adults     int      `gorm:"column:adults;not null;default:1"`
	Children   int      `gorm:"column:children;not null;default:0"`
	TotalPrice *float64 `gorm:"column:total_price"`
	Currency   string   `gorm:"column:currency;type:varchar(3);not null;default:'COP'"`

	AccommodationUnitID *string                     `gorm:"column:accommodation_unit_id;size:36"`
	ExternalBookingID   string                      `gorm:"column:external_booking_id;type:varchar(64);not null;uniqueIndex:uq_reservation_external,priority:2"`
	ReservationCode     *string                     `gorm:"column:reservation_code;type:varchar(64)"`
	BookingSource       string                      `gorm:"column:booking_source;type:varchar(32);not null"`
	Status              constants.ReservationStatus `gorm:"column:status;type:varchar(32);not null"`
	BookingNotes        *string                     `gorm:"column:booking_notes;type:text"`

	// Compliance block (guest-owned)
	DocumentType        *string `gorm:"column:document_type;type:varchar(10)"`
	DocumentNumber      *string `gorm:"column:document_number;type:varchar(50)"`
	BirthDate           *string `gorm:"column:birth_date;type:varchar(10)"`
	FirstSurname        *string `gorm:"column:first_surname;type:varchar(100)"`
	SecondSurname       *string `gorm:"column:second_surname;type:varchar(100)"`
	GivenNames          *string `gorm:"column:given_names;type:varchar(200)"`
	NationalityCode     *string `gorm:"column:nationality_code;type:varchar(10)"`
	OriginCityCode      *string `gorm:"column:origin_city_code;type:varchar(10)"`
	DestinationCityCode *string `gorm:"column:destination_city_code;type:varchar(10)"`
	MovementType        *string `gorm:"column:movement_type;type:varchar(1)"`
	MovementDate        *string `gorm:"column:movement_date;type:varchar(10)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Reservation) TableName() string {
	return "guest_reservations"
}

func (r *Reservation) BeforeCreate(tx *gormlib.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ComplianceColumns lists the guest-owned columns a sync may only fill when NULL.
var ComplianceColumns = []string{
	"document_type",
	"document_number",
	"birth_date",
	"first_surname",
	"second_surname",
	"given_names",
	"nationality_code",
	"origin_city_code",
	"destination_city_code",
	"movement_type",
	"movement_date",
}

// ComplianceValues maps each compliance column to the reservation's value for it.
func (r *Reservation) ComplianceValues() map[string]*string {
	return map[string]*string{
		"document_type":         r.DocumentType,
		"document_number":       r.DocumentNumber,
		"birth_date":            r.BirthDate,
		"first_surname":         r.FirstSurname,
		"second_surname":        r.SecondSurname,
		"given_names":           r.GivenNames,
		"nationality_code":      r.NationalityCode,
		"origin_city_code":      r.OriginCityCode,
		"destination_city_code": r.DestinationCityCode,
		"movement_type":         r.MovementType,
		"movement_date":         r.MovementDate,
	}
}

// SyncOwnedValues returns the columns a PMS sync is allowed to overwrite on
// an existing reservation, keyed by column name.
func (r *Reservation) SyncOwnedValues() map[string]interface{} {
	return map[string]interface{}{
		"guest_name":            r.GuestName,
		"guest_email":           r.GuestEmail,
		"guest_country":         r.GuestCountry,
		"phone_full":            r.PhoneFull,
		"phone_last_4":          r.PhoneLast4,
		"check_in_date":         r.CheckInDate,
		"check_out_date":        r.CheckOutDate,
		"check_in_time":         r.CheckInTime,
		"check_out_time":        r.CheckOutTime,
		"adults":                r.Adults,
		"children":              r.Children,
		"total_price":           r.TotalPrice,
		"currency":              r.Currency,
		"accommodation_unit_id": r.AccommodationUnitID,
		"reservation_code":      r.ReservationCode,
		"booking_source":        r.BookingSource,
		"status":                r.Status,
		"booking_notes":         r.BookingNotes,
		"updated_at":            time.Now().UTC(),
	}
}
