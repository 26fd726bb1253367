package mapping

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/models/dtos"
	gormModels "innpilot/reservation-sync/internal/models/gorm"
)

const (
	defaultCheckInTime  = "15:00:00"
	defaultCheckOutTime = "12:00:00"
	defaultCurrency     = "COP"
)

var (
	ErrMissingBookingID = errors.New("booking has no id")
	ErrMissingStayDates = errors.New("booking has no stay dates")
)

// AccommodationResolver maps a PMS room-type id to an internal unit id.
// A nil id with a nil error means "not linked yet".
type AccommodationResolver interface {
	Resolve(ctx context.Context, tenantID string, externalTypeID int) (*string, error)
}

// MappedReservation is a canonical reservation draft plus its room line items
type MappedReservation struct {
	Reservation     *gormModels.Reservation
	Accommodations  []gormModels.ReservationAccommodation
	Imported        bool
	ReservationCode string
	Unresolved      int
}

// BookingMapper converts PMS bookings into canonical reservations
type BookingMapper struct {
	resolver AccommodationResolver
	markers  []string
}

func NewBookingMapper(resolver AccommodationResolver, channelMarkers []string) *BookingMapper {
	return &BookingMapper{
		resolver: resolver,
		markers:  channelMarkers,
	}
}

// IsImported reports whether the booking is a third-party calendar block
func (m *BookingMapper) IsImported(b *dtos.PMSBooking) bool {
	return IsImported(b.ICalDescription, m.markers)
}

// Map builds the reservation draft for one booking. Only a missing id or
// missing stay dates fail; every other field has a fallback.
func (m *BookingMapper) Map(ctx context.Context, tenantID string, b *dtos.PMSBooking) (*MappedReservation, error) {
	if b.ID <= 0 {
		return nil, ErrMissingBookingID
	}

	checkIn, err := ParseStayDate(b.CheckInDate)
	if err != nil {
		return nil, fmt.Errorf("%w: check-in %q", ErrMissingStayDates, b.CheckInDate)
	}
	checkOut, err := ParseStayDate(b.CheckOutDate)
	if err != nil {
		return nil, fmt.Errorf("%w: check-out %q", ErrMissingStayDates, b.CheckOutDate)
	}

	imported := m.IsImported(b)

	res := &gormModels.Reservation{
		TenantID:          tenantID,
		GuestName:         ResolveGuestName(b.Customer, b.ReservedAccommodations),
		CheckInDate:       checkIn,
		CheckOutDate:      checkOut,
		CheckInTime:       normalizeClock(b.CheckInTime, defaultCheckInTime),
		CheckOutTime:      normalizeClock(b.CheckOutTime, defaultCheckOutTime),
		Currency:          defaultCurrency,
		ExternalBookingID: strconv.Itoa(b.ID),
		Status:            ClassifyStatus(b.Status),
	}

	if c := strings.ToUpper(strings.TrimSpace(b.Currency)); c != "" {
		res.Currency = c
	}

	if imported {
		res.BookingSource = constants.BookingSourceImported
		res.PhoneLast4 = ExtractPhoneLast4(b.ICalDescription)
	} else {
		res.BookingSource = constants.BookingSourceDirect
		res.PhoneLast4 = NormalizePhoneLast4(b.Customer.Phone)
		res.PhoneFull = optional(b.Customer.Phone)
		res.GuestEmail = optional(b.Customer.Email)
		res.GuestCountry = optional(b.Customer.Country)
	}

	mapped := &MappedReservation{
		Reservation: res,
		Imported:    imported,
	}

	if code, ok := ExtractReservationCode(b.ICalDescription); ok {
		mapped.ReservationCode = code
		res.ReservationCode = &code
	}

	res.BookingNotes = buildNotes(ExtractRoomLabel(b.Embedded), b.ICalDescription, b.Note)

	adults, children := 0, 0
	var lineTotal float64
	for _, item := range b.ReservedAccommodations {
		unitID, err := m.resolver.Resolve(ctx, tenantID, item.AccommodationType)
		if err != nil {
			return nil, fmt.Errorf("resolve accommodation type %d: %w", item.AccommodationType, err)
		}
		if unitID == nil {
			mapped.Unresolved++
		}

		rate := lineRate(item)
		if rate != nil {
			lineTotal += *rate
		}

		mapped.Accommodations = append(mapped.Accommodations, gormModels.ReservationAccommodation{
			AccommodationUnitID: unitID,
			MotoPressTypeID:     item.AccommodationType,
			MotoPressUnitID:     item.Accommodation,
			RoomRate:            rate,
		})

		adults += item.Adults
		children += item.Children
	}

	if len(mapped.Accommodations) > 0 {
		res.AccommodationUnitID = mapped.Accommodations[0].AccommodationUnitID
	}

	if adults < 1 {
		adults = 1
	}
	res.Adults = adults
	res.Children = children

	switch {
	case b.TotalPrice != nil:
		total := *b.TotalPrice
		res.TotalPrice = &total
	case lineTotal > 0:
		res.TotalPrice = &lineTotal
	}

	return mapped, nil
}

// lineRate is the sum of the nightly prices minus the line discount
func lineRate(item dtos.PMSReservedAccommodation) *float64 {
	if len(item.PricePerDays) == 0 && item.Discount == 0 {
		return nil
	}
	var sum float64
	for _, day := range item.PricePerDays {
		sum += day.Price
	}
	sum -= item.Discount
	return &sum
}

func buildNotes(roomLabel, description, note string) *string {
	body := strings.TrimSpace(description)
	if body == "" {
		body = strings.TrimSpace(note)
	}

	switch {
	case roomLabel != "" && body != "":
		s := "Room: " + roomLabel + "\n\n" + body
		return &s
	case roomLabel != "":
		s := "Room: " + roomLabel
		return &s
	case body != "":
		return &body
	}
	return nil
}

// normalizeClock turns "15:00" into "15:00:00" and applies the default when empty
func normalizeClock(raw, def string) string {
	raw = strings.TrimSpace(raw)
	switch len(raw) {
	case 0:
		return def
	case 5:
		return raw + ":00"
	}
	return raw
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
