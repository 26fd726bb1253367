package mapping

import (
	"regexp"
	"strings"
	"unicode"

	"innpilot/reservation-sync/internal/models/dtos"
)

// PhoneSentinel stands in for a phone suffix we could not find
const PhoneSentinel = "0000"

// GuestPlaceholder is used when a booking carries no usable name
const GuestPlaceholder = "Guest"

var (
	importedPhonePattern = regexp.MustCompile(`Phone Number \(Last 4 Digits\):\s*(\d{4})`)
	reservationCodeRegex = regexp.MustCompile(`/([A-Z0-9]{10,})`)
)

// IsImported reports whether the calendar description mentions one of the
// third-party channel markers (case-insensitive).
func IsImported(description string, markers []string) bool {
	if description == "" {
		return false
	}
	lower := strings.ToLower(description)
	for _, marker := range markers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// ExtractPhoneLast4 finds the labelled 4-digit phone suffix an imported
// calendar block carries in its description.
func ExtractPhoneLast4(description string) string {
	m := importedPhonePattern.FindStringSubmatch(description)
	if len(m) < 2 {
		return PhoneSentinel
	}
	return m[1]
}

// NormalizePhoneLast4 keeps the last four digits of a structured phone
// number, left-padding short numbers with zeros.
func NormalizePhoneLast4(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch {
	case d == "":
		return PhoneSentinel
	case len(d) >= 4:
		return d[len(d)-4:]
	default:
		return strings.Repeat("0", 4-len(d)) + d
	}
}

// ExtractReservationCode returns the first 10+ character uppercase
// alphanumeric path segment in the description, e.g. the code in
// ".../details/HMABCDE12345".
func ExtractReservationCode(description string) (string, bool) {
	m := reservationCodeRegex.FindStringSubmatch(description)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// ExtractRoomLabel prefers the embedded accommodation title and falls back
// to the embedded accommodation type title.
func ExtractRoomLabel(embedded *dtos.PMSEmbedded) string {
	if embedded == nil {
		return ""
	}
	for _, acc := range embedded.Accommodations {
		if title := acc.Title.String(); title != "" {
			return title
		}
	}
	for _, accType := range embedded.AccommodationTypes {
		if title := accType.Title.String(); title != "" {
			return title
		}
	}
	return ""
}

// ResolveGuestName applies the name fallback chain. It never returns "".
func ResolveGuestName(customer dtos.PMSCustomer, items []dtos.PMSReservedAccommodation) string {
	first := strings.TrimSpace(customer.FirstName)
	last := strings.TrimSpace(customer.LastName)

	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}

	for _, item := range items {
		if name := strings.TrimSpace(item.GuestName); name != "" {
			return name
		}
	}

	return GuestPlaceholder
}
