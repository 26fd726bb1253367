package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"innpilot/reservation-sync/internal/constants"
	gormModels "innpilot/reservation-sync/internal/models/gorm"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrRunAlreadyFinalized is returned when a sync run is closed twice
var ErrRunAlreadyFinalized = errors.New("sync run already finalized")

// SyncRunRepo writes the append-only sync_history audit trail
type SyncRunRepo struct {
	db *sqlx.DB
}

func NewSyncRunRepo(db *sqlx.DB) *SyncRunRepo {
	return &SyncRunRepo{db: db}
}

// Start inserts the run in the running state and fills ID and StartedAt
func (r *SyncRunRepo) Start(ctx context.Context, run *gormModels.SyncRun) error {
	run.ID = uuid.NewString()
	run.Status = constants.SyncStatusRunning
	run.StartedAt = time.Now().UTC()
	run.CompletedAt = nil

	const query = `
		INSERT INTO sync_history (id, tenant_id, integration_type, sync_type, status,
			records_processed, records_created, records_updated, records_errored,
			error_message, metadata, started_at, completed_at)
		VALUES (:id, :tenant_id, :integration_type, :sync_type, :status,
			:records_processed, :records_created, :records_updated, :records_errored,
			:error_message, :metadata, :started_at, :completed_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to start sync run: %w", err)
	}
	return nil
}

// Finalize closes a running row. It can succeed only once per run.
func (r *SyncRunRepo) Finalize(ctx context.Context, run *gormModels.SyncRun) error {
	now := time.Now().UTC()
	run.CompletedAt = &now

	const query = `
		UPDATE sync_history
		SET status = :status,
			records_processed = :records_processed,
			records_created = :records_created,
			records_updated = :records_updated,
			records_errored = :records_errored,
			error_message = :error_message,
			metadata = :metadata,
			completed_at = :completed_at
		WHERE id = :id AND completed_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("failed to finalize sync run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finalize sync run: %w", err)
	}
	if affected == 0 {
		return ErrRunAlreadyFinalized
	}
	return nil
}

// ListRecent returns the latest runs of a tenant, newest first
func (r *SyncRunRepo) ListRecent(ctx context.Context, tenantID string, limit int) ([]gormModels.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := r.db.Rebind(`
		SELECT id, tenant_id, integration_type, sync_type, status,
			records_processed, records_created, records_updated, records_errored,
			error_message, metadata, started_at, completed_at
		FROM sync_history
		WHERE tenant_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`)

	var runs []gormModels.SyncRun
	if err := r.db.SelectContext(ctx, &runs, query, tenantID, limit); err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}
