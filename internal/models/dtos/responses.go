package dtos

import "time"

// ConnectionTestResponse is returned by the test-connection endpoint
type ConnectionTestResponse struct {
	OK                 bool   `json:"ok"`
	AccommodationCount int    `json:"accommodationCount"`
	Message            string `json:"message,omitempty"`
}

// LinkingResponse is returned by the link-accommodations endpoint
type LinkingResponse struct {
	TenantID   string `json:"tenant_id"`
	Linked     int    `json:"linked"`
	DurationMs int    `json:"duration_ms"`
}

// SyncRunSummary is one row of the sync-history endpoint
type SyncRunSummary struct {
	ID               string                 `json:"id"`
	SyncType         string                 `json:"sync_type"`
	Status           string                 `json:"status"`
	RecordsProcessed int                    `json:"records_processed"`
	RecordsCreated   int                    `json:"records_created"`
	RecordsUpdated   int                    `json:"records_updated"`
	RecordsErrored   int                    `json:"records_errored"`
	ErrorMessage     *string                `json:"error_message,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	StartedAt        time.Time              `json:"started_at"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
}
