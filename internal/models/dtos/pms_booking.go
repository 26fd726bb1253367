package dtos

import (
	"encoding/json"
	"strings"
)

// PMSBooking is a booking as returned by the MotoPress Hotel Booking REST API
// (/wp-json/mphb/v1/bookings). With _embed=1 the related accommodation and
// accommodation type records are inlined under Embedded.
type PMSBooking struct {
	ID                     int                        `json:"id"`
	Status                 string                     `json:"status"`
	CheckInDate            string                     `json:"check_in_date"`
	CheckOutDate           string                     `json:"check_out_date"`
	CheckInTime            string                     `json:"check_in_time"`
	CheckOutTime           string                     `json:"check_out_time"`
	Customer               PMSCustomer                `json:"customer"`
	ReservedAccommodations []PMSReservedAccommodation `json:"reserved_accommodations"`
	Currency               string                     `json:"currency"`
	TotalPrice             *float64                   `json:"total_price"`
	Imported               bool                       `json:"imported"`
	ICalDescription        string                     `json:"ical_description"`
	ICalSummary            string                     `json:"ical_summary"`
	Note                   string                     `json:"note"`
	Embedded               *PMSEmbedded               `json:"_embedded,omitempty"`
}

type PMSCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	State     string `json:"state"`
	City      string `json:"city"`
	Address1  string `json:"address1"`
	Zip       string `json:"zip"`
}

// PMSReservedAccommodation is one room line item. Accommodation is the room
// instance id, AccommodationType the room type id.
type PMSReservedAccommodation struct {
	Accommodation     int             `json:"accommodation"`
	AccommodationType int             `json:"accommodation_type"`
	Rate              int             `json:"rate"`
	Adults            int             `json:"adults"`
	Children          int             `json:"children"`
	GuestName         string          `json:"guest_name"`
	PricePerDays      []PMSDailyPrice `json:"accommodation_price_per_days"`
	Discount          float64         `json:"discount"`
}

type PMSDailyPrice struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

type PMSEmbedded struct {
	Accommodations     []PMSTitled `json:"accommodations"`
	AccommodationTypes []PMSTitled `json:"accommodation_types"`
}

type PMSTitled struct {
	ID    int          `json:"id"`
	Title RenderedText `json:"title"`
}

// PMSAccommodationType is a room type from /accommodation_types.
type PMSAccommodationType struct {
	ID          int          `json:"id"`
	Title       RenderedText `json:"title"`
	Description RenderedText `json:"description"`
	Status      string       `json:"status"`
	Adults      int          `json:"adults"`
	Children    int          `json:"children"`
	BedType     string       `json:"bed_type"`
	Size        float64      `json:"size"`
}

// RenderedText accepts both a bare string and the WordPress {"rendered": "..."} form.
type RenderedText string

func (t *RenderedText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = RenderedText(s)
		return nil
	}
	if string(data) == "null" {
		*t = ""
		return nil
	}
	var rendered struct {
		Rendered string `json:"rendered"`
	}
	if err := json.Unmarshal(data, &rendered); err != nil {
		return err
	}
	*t = RenderedText(rendered.Rendered)
	return nil
}

func (t RenderedText) String() string {
	return strings.TrimSpace(string(t))
}
