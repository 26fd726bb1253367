package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"innpilot/reservation-sync/internal/auth"
	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/middleware"
	"innpilot/reservation-sync/internal/models/dtos"
	"innpilot/reservation-sync/internal/stream"
)

// SyncAll handles GET /api/v1/integrations/motopress/sync-all
//
// @Summary Run a full reservation sync
// @Description Pulls every booking of the tenant from MotoPress and streams progress frames (NDJSON, or SSE when requested).
// @Tags MotoPress
// @Param tenant_id query string true "Tenant to sync"
// @Produce application/x-ndjson
// @Router /api/v1/integrations/motopress/sync-all [get]
func (h *Handlers) SyncAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.URL.Query().Get("tenant_id")
		if tenantID == "" {
			respondWithError(w, http.StatusBadRequest, constants.MsgMissingTenant)
			return
		}

		session := auth.GetStaffSession(r.Context())
		if !session.CanSync(tenantID) {
			respondWithError(w, http.StatusForbidden, constants.MsgTenantMismatch)
			return
		}

		s, err := stream.NewHTTP(w, r)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, constants.MsgStreamingUnsupported)
			return
		}

		log := logging.WithRequest(middleware.GetRequestID(r.Context()), tenantID, session.StaffID, r.URL.Path)
		log.Infow("[SyncHandler] Sync requested", "sse", r.Header.Get("Accept") == "text/event-stream")

		// The run outlives the client; a dropped connection only detaches the stream
		ctx := context.WithoutCancel(r.Context())
		err = stream.Run(ctx, s, h.heartbeat, func(ctx context.Context) (*dtos.SyncStats, error) {
			return h.deps.SyncJob.SyncTenant(ctx, tenantID, s)
		})
		if err != nil {
			log.Warnw("[SyncHandler] Sync ended with error", "error", err.Error(), "detached", s.Detached())
		}
	}
}

// TestConnection handles POST /api/v1/integrations/motopress/test-connection
//
// @Summary Test the MotoPress connection
// @Tags MotoPress
// @Success 200 {object} dtos.ConnectionTestResponse
// @Router /api/v1/integrations/motopress/test-connection [post]
func (h *Handlers) TestConnection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := auth.GetStaffSession(r.Context())
		if session == nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		result, err := h.deps.SyncJob.TestConnection(r.Context(), session.TenantID)
		if err != nil {
			logging.Warn("[SyncHandler] Connection test failed", "tenant_id", session.TenantID, "error", err.Error())
			respondWithSyncError(w, err)
			return
		}

		respondWithSuccess(w, http.StatusOK, &dtos.ConnectionTestResponse{
			OK:                 result.OK,
			AccommodationCount: result.AccommodationCount,
		})
	}
}

// LinkAccommodations handles POST /api/v1/integrations/motopress/link-accommodations
//
// @Summary Link reservation rows to accommodation units
// @Tags MotoPress
// @Success 200 {object} dtos.LinkingResponse
// @Router /api/v1/integrations/motopress/link-accommodations [post]
func (h *Handlers) LinkAccommodations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := auth.GetStaffSession(r.Context())
		if session == nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		start := time.Now()
		linked, err := h.deps.SyncJob.LinkingJob().LinkTenant(r.Context(), session.TenantID)
		if err != nil {
			logging.Error("[SyncHandler] Linking failed", "tenant_id", session.TenantID, "error", err.Error())
			respondWithError(w, http.StatusInternalServerError, "Failed to link accommodations")
			return
		}

		respondWithSuccess(w, http.StatusOK, &dtos.LinkingResponse{
			TenantID:   session.TenantID,
			Linked:     linked,
			DurationMs: int(time.Since(start).Milliseconds()),
		})
	}
}

// SyncHistory handles GET /api/v1/integrations/motopress/sync-history
//
// @Summary List recent sync runs
// @Tags MotoPress
// @Param limit query int false "Maximum rows (default 20, max 100)"
// @Success 200 {array} dtos.SyncRunSummary
// @Router /api/v1/integrations/motopress/sync-history [get]
func (h *Handlers) SyncHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := auth.GetStaffSession(r.Context())
		if session == nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 1 {
				respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = v
		}

		runs, err := h.deps.Repo.SyncRuns.ListRecent(r.Context(), session.TenantID, limit)
		if err != nil {
			logging.Error("[SyncHandler] Failed to load sync history", "tenant_id", session.TenantID, "error", err.Error())
			respondWithError(w, http.StatusInternalServerError, "Failed to load sync history")
			return
		}

		summaries := make([]dtos.SyncRunSummary, 0, len(runs))
		for _, run := range runs {
			summary := dtos.SyncRunSummary{
				ID:               run.ID,
				SyncType:         run.SyncType,
				Status:           run.Status,
				RecordsProcessed: run.RecordsProcessed,
				RecordsCreated:   run.RecordsCreated,
				RecordsUpdated:   run.RecordsUpdated,
				RecordsErrored:   run.RecordsErrored,
				ErrorMessage:     run.ErrorMessage,
				StartedAt:        run.StartedAt,
				CompletedAt:      run.CompletedAt,
			}
			if len(run.Metadata) > 0 {
				if err := json.Unmarshal(run.Metadata, &summary.Metadata); err != nil {
					logging.Warn("[SyncHandler] Unreadable run metadata", "run_id", run.ID, "error", err.Error())
				}
			}
			summaries = append(summaries, summary)
		}

		respondWithSuccess(w, http.StatusOK, &summaries)
	}
}
