package jobs

import (
	"errors"

	"innpilot/reservation-sync/internal/providers"
)

// SyncErrorKind classifies fatal sync failures
type SyncErrorKind string

const (
	KindConfiguration SyncErrorKind = "configuration"
	KindConnectivity  SyncErrorKind = "connectivity"
	KindInventory     SyncErrorKind = "inventory"
	KindFetch         SyncErrorKind = "fetch"
)

// SyncError aborts a run. Message is operator-facing; Err is the cause.
type SyncError struct {
	Kind    SyncErrorKind
	Stage   string
	Message string
	Err     error
}

// Error renders the operator message. Remote failures always carry the
// PMS's own text; configuration causes stay in the logs.
func (e *SyncError) Error() string {
	var provErr *providers.ProviderError
	switch {
	case e.Err == nil:
		return e.Message
	case errors.As(e.Err, &provErr):
		return e.Message + ": " + provErr.Error()
	case e.Message == "":
		return e.Err.Error()
	case e.Kind == KindConfiguration:
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
