package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"innpilot/reservation-sync/internal/jobs"
	"innpilot/reservation-sync/internal/models/dtos/responses"
)

func respondWithSuccess[T any](w http.ResponseWriter, statusCode int, data *T) {
	writeEnvelope(w, statusCode, responses.APIResponse[T]{
		Status:    responses.StatusSuccess,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeEnvelope(w, statusCode, responses.APIResponse[any]{
		Status:    responses.StatusError,
		Timestamp: time.Now().UTC(),
		Error:     message,
	})
}

// respondWithSyncError maps a failed sync step to an HTTP status. Setup
// problems are the caller's to fix (400); remote failures are 502.
func respondWithSyncError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var syncErr *jobs.SyncError
	if errors.As(err, &syncErr) {
		switch syncErr.Kind {
		case jobs.KindConfiguration:
			status = http.StatusBadRequest
		case jobs.KindConnectivity, jobs.KindInventory, jobs.KindFetch:
			status = http.StatusBadGateway
		}
	}

	respondWithError(w, status, err.Error())
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
