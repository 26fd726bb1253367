package jobs

import (
	"context"
	"fmt"
	"time"

	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/db/repositories"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/services"
)

// AccommodationLinkingJob fills in accommodation references that could not
// be resolved when the booking was first stored
type AccommodationLinkingJob struct {
	configRepo      *repositories.IntegrationConfigRepo
	reservationRepo *repositories.ReservationRepo
	resolver        *services.AccommodationResolver
}

func NewAccommodationLinkingJob(
	configRepo *repositories.IntegrationConfigRepo,
	reservationRepo *repositories.ReservationRepo,
	resolver *services.AccommodationResolver,
) *AccommodationLinkingJob {
	return &AccommodationLinkingJob{
		configRepo:      configRepo,
		reservationRepo: reservationRepo,
		resolver:        resolver,
	}
}

// Run links accommodations for every tenant with an active integration
func (j *AccommodationLinkingJob) Run(ctx context.Context) error {
	start := time.Now()

	tenantIDs, err := j.configRepo.ListActiveTenants(ctx, constants.IntegrationMotoPress)
	if err != nil {
		return err
	}

	totalLinked := 0
	for _, tenantID := range tenantIDs {
		linked, err := j.LinkTenant(ctx, tenantID)
		if err != nil {
			logging.Error("[AccommodationLinkingJob] Linking failed", "tenant_id", tenantID, "error", err.Error())
			continue
		}
		totalLinked += linked
	}

	logging.Info("[AccommodationLinkingJob] Completed",
		"tenants", len(tenantIDs),
		"linked", totalLinked,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// LinkTenant resolves every unlinked line item of the tenant, then copies
// the first linked unit onto reservations that still have none
func (j *AccommodationLinkingJob) LinkTenant(ctx context.Context, tenantID string) (int, error) {
	rows, err := j.reservationRepo.ListUnlinkedAccommodations(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	linked, errorCount := 0, 0
	for _, row := range rows {
		unitID, err := j.resolver.Resolve(ctx, tenantID, row.MotoPressTypeID)
		if err != nil {
			return linked, fmt.Errorf("failed to resolve accommodation type %d: %w", row.MotoPressTypeID, err)
		}
		if unitID == nil {
			continue
		}

		if err := j.reservationRepo.LinkAccommodation(ctx, row.ID, *unitID); err != nil {
			logging.Warn("[AccommodationLinkingJob] Failed to link line item",
				"tenant_id", tenantID, "row_id", row.ID, "error", err.Error())
			errorCount++
			continue
		}
		linked++
	}

	backfilled, err := j.reservationRepo.BackfillReservationUnits(ctx, tenantID)
	if err != nil {
		return linked, err
	}

	logging.Info("[AccommodationLinkingJob] Tenant linked",
		"tenant_id", tenantID,
		"unlinked", len(rows),
		"linked", linked,
		"reservations_backfilled", backfilled,
		"errors", errorCount,
	)
	return linked, nil
}
