package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"innpilot/reservation-sync/internal/db/repositories"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/models/dtos"
	gormModels "innpilot/reservation-sync/internal/models/gorm"
	"innpilot/reservation-sync/internal/providers"
)

// AccommodationSyncJob mirrors the PMS room-type inventory into accommodation_units
type AccommodationSyncJob struct {
	unitRepo *repositories.AccommodationUnitRepo
}

func NewAccommodationSyncJob(unitRepo *repositories.AccommodationUnitRepo) *AccommodationSyncJob {
	return &AccommodationSyncJob{unitRepo: unitRepo}
}

// SyncTenant fetches every accommodation type and upserts it as a unit.
// Any failure aborts: a half-synced inventory leaves bookings unresolved.
func (j *AccommodationSyncJob) SyncTenant(ctx context.Context, tenantID string, provider providers.PMSProvider) (int, error) {
	start := time.Now()

	types, err := provider.FetchAccommodationTypes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch accommodation types: %w", err)
	}

	for _, t := range types {
		unit := unitFromType(tenantID, t)
		if err := j.unitRepo.Upsert(ctx, unit); err != nil {
			return 0, fmt.Errorf("failed to upsert accommodation type %d: %w", t.ID, err)
		}
	}

	logging.Info("[AccommodationSyncJob] Inventory synced",
		"tenant_id", tenantID,
		"types", len(types),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return len(types), nil
}

func unitFromType(tenantID string, t dtos.PMSAccommodationType) *gormModels.AccommodationUnit {
	name := t.Title.String()
	if name == "" {
		name = fmt.Sprintf("Accommodation %d", t.ID)
	}

	status := "active"
	if s := strings.TrimSpace(t.Status); s != "" && s != "publish" {
		status = s
	}

	return &gormModels.AccommodationUnit{
		TenantID:        tenantID,
		Name:            name,
		MotoPressTypeID: t.ID,
		Status:          status,
		Capacity:        t.Adults + t.Children,
		Metadata: map[string]interface{}{
			"bed_type":    t.BedType,
			"size":        t.Size,
			"description": t.Description.String(),
		},
	}
}
