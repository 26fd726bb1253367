package repositories

import (
	"context"
	"errors"
	"testing"

	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/db/dbtest"
	gormModels "innpilot/reservation-sync/internal/models/gorm"

	"gorm.io/datatypes"
)

func TestSyncRunRepo_StartFinalizeOnce(t *testing.T) {
	_, sqlxDB := dbtest.Open(t)
	repo := NewSyncRunRepo(sqlxDB)
	ctx := context.Background()

	run := &gormModels.SyncRun{
		TenantID:        "tenant-1",
		IntegrationType: constants.IntegrationMotoPress,
		SyncType:        constants.SyncTypeReservationsComplete,
	}
	if err := repo.Start(ctx, run); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if run.ID == "" {
		t.Fatal("Expected run id to be assigned")
	}

	run.Status = constants.SyncStatusPartial
	run.RecordsProcessed = 3
	run.RecordsCreated = 2
	run.RecordsErrored = 1
	run.Metadata = datatypes.JSON(`{"past_excluded":4}`)
	if err := repo.Finalize(ctx, run); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	run.Status = constants.SyncStatusSuccess
	if err := repo.Finalize(ctx, run); !errors.Is(err, ErrRunAlreadyFinalized) {
		t.Errorf("Expected ErrRunAlreadyFinalized, got %v", err)
	}

	runs, err := repo.ListRecent(ctx, "tenant-1", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	if runs[0].Status != constants.SyncStatusPartial {
		t.Errorf("Expected stored status partial, got %s", runs[0].Status)
	}
	if runs[0].CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
	if runs[0].RecordsCreated != 2 || runs[0].RecordsErrored != 1 {
		t.Errorf("Expected 2 created 1 errored, got %d/%d", runs[0].RecordsCreated, runs[0].RecordsErrored)
	}
}
