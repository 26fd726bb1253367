package jobs

import (
	"context"
	"time"

	"innpilot/reservation-sync/internal/logging"
)

// InitializeJobs builds the reservation sync job and, when interval is
// positive, starts the scheduled sync of all tenants in the background
func InitializeJobs(ctx context.Context, deps ReservationSyncDeps, opts SyncOptions, interval time.Duration) *ReservationSyncJob {
	syncJob := NewReservationSyncJob(deps, opts)

	if interval > 0 {
		logging.Info("[ReservationSyncJob] Scheduled sync enabled", "interval", interval.String())
		go syncJob.RunScheduled(ctx, interval)
	}

	return syncJob
}
