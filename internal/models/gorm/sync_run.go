package gorm

import (
	"time"

	"gorm.io/datatypes"
)

// SyncRun is one append-only audit row per sync invocation. It is inserted
// when the run starts and finalized exactly once.
type SyncRun struct {
	ID               string         `gorm:"column:id;primaryKey;size:36" db:"id"`
	TenantID         string         `gorm:"column:tenant_id;size:36;not null;index" db:"tenant_id"`
	IntegrationType  string         `gorm:"column:integration_type;type:varchar(32);not null" db:"integration_type"`
	SyncType         string         `gorm:"column:sync_type;type:varchar(50);not null" db:"sync_type"`
	Status           string         `gorm:"column:status;type:varchar(20);not null" db:"status"`
	RecordsProcessed int            `gorm:"column:records_processed;not null;default:0" db:"records_processed"`
	RecordsCreated   int            `gorm:"column:records_created;not null;default:0" db:"records_created"`
	RecordsUpdated   int            `gorm:"column:records_updated;not null;default:0" db:"records_updated"`
	RecordsErrored   int            `gorm:"column:records_errored;not null;default:0" db:"records_errored"`
	ErrorMessage     *string        `gorm:"column:error_message;type:text" db:"error_message"`
	Metadata         datatypes.JSON `gorm:"column:metadata" db:"metadata"`
	StartedAt        time.Time      `gorm:"column:started_at;not null" db:"started_at"`
	CompletedAt      *time.Time     `gorm:"column:completed_at" db:"completed_at"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_history"
}
