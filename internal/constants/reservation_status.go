package constants

import (
	"database/sql/driver"
	"fmt"
)

// ReservationStatus is the canonical status taxonomy of guest_reservations
type ReservationStatus string

const (
	StatusActive         ReservationStatus = "active"
	StatusPendingPayment ReservationStatus = "pending_payment"
	StatusPendingAdmin   ReservationStatus = "pending_admin"
	StatusCancelled      ReservationStatus = "cancelled"
)

func (s ReservationStatus) String() string { return string(s) }

// Scan implements the sql.Scanner interface
func (s *ReservationStatus) Scan(src interface{}) error {
	if src == nil {
		*s = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*s = ReservationStatus(v)
	case []byte:
		*s = ReservationStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into ReservationStatus", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (s ReservationStatus) Value() (driver.Value, error) {
	return string(s), nil
}
