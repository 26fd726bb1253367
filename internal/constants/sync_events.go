package constants

// Integration types stored in integration_configs and sync_history
const (
	IntegrationMotoPress = "motopress"
)

// Sync types for the sync_history table
const (
	SyncTypeReservationsComplete = "reservations_complete"
	SyncTypeAccommodations       = "accommodations"
)

// Run outcomes for the sync_history table
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusError   = "error"
)

// Booking sources recorded on guest_reservations
const (
	BookingSourceDirect   = "motopress"
	BookingSourceImported = "airbnb"
)

// Event routing
const (
	EventExchange           = "reservation-sync"
	EventReservationsSynced = "reservations.synced"
)
