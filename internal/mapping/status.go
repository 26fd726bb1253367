package mapping

import (
	"strings"

	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/logging"
)

var statusTable = map[string]constants.ReservationStatus{
	"confirmed":       constants.StatusActive,
	"pending-payment": constants.StatusPendingPayment,
	"pending":         constants.StatusPendingAdmin,
	"pending-user":    constants.StatusPendingAdmin,
	"cancelled":       constants.StatusCancelled,
	"abandoned":       constants.StatusCancelled,
}

// ClassifyStatus maps a PMS booking status onto the canonical taxonomy.
// Unknown values become pending_admin.
func ClassifyStatus(raw string) constants.ReservationStatus {
	key := strings.ToLower(strings.TrimSpace(raw))
	if status, ok := statusTable[key]; ok {
		return status
	}

	logging.Warn("Unknown PMS booking status, defaulting to pending_admin", "status", raw)
	return constants.StatusPendingAdmin
}

// IsCancelled reports whether the raw status classifies as cancelled.
// Unlike ClassifyStatus it never logs.
func IsCancelled(raw string) bool {
	return statusTable[strings.ToLower(strings.TrimSpace(raw))] == constants.StatusCancelled
}
