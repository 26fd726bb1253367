package providers

import (
	"context"
	"fmt"

	"innpilot/reservation-sync/internal/models/dtos"
)

// PMSProvider defines the interface for property-management systems we pull bookings from
type PMSProvider interface {
	// TestConnection validates credentials and warms up the remote session.
	// It must be called before any bulk retrieval.
	TestConnection(ctx context.Context) (*ConnectionResult, error)

	// FetchAccommodationTypes returns the full room-type inventory
	FetchAccommodationTypes(ctx context.Context) ([]dtos.PMSAccommodationType, error)

	// FetchAllBookingsEmbedded pages through every booking with related
	// records inlined, calling onProgress after each page
	FetchAllBookingsEmbedded(ctx context.Context, onProgress ProgressFunc) ([]dtos.PMSBooking, error)

	// ProviderType returns the provider type identifier
	ProviderType() string
}

// ProgressFunc receives fetch progress. Total is 0 when the PMS does not report it.
type ProgressFunc func(current, total int, message string)

// ConnectionResult is the outcome of a connectivity self-test
type ConnectionResult struct {
	OK                 bool
	AccommodationCount int
}

// ProviderError is a typed failure from the remote API. Details carries the
// remote response body when there was one.
type ProviderError struct {
	Code    string
	Message string
	Details string
	Status  int
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
