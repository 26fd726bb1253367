package api

import (
	"time"

	"innpilot/reservation-sync/internal/stream"
)

type Handlers struct {
	deps      *Dependencies
	heartbeat time.Duration
}

// NewHandlers creates a new handlers instance with injected dependencies.
// heartbeat is the keep-alive interval of the sync stream.
func NewHandlers(deps *Dependencies, heartbeat time.Duration) *Handlers {
	if heartbeat <= 0 {
		heartbeat = stream.DefaultHeartbeatInterval
	}
	return &Handlers{
		deps:      deps,
		heartbeat: heartbeat,
	}
}
