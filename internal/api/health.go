package api

import (
	"encoding/json"
	"net/http"
	"time"

	"innpilot/reservation-sync/internal/models/entities"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Verifies the server and its backing services are reachable.
// @Tags Misc
// @Success 200 {object} entities.HealthCheckResponse
// @Failure 503 {object} entities.HealthCheckResponse
// @Router /healthCheck [get]
func HealthCheckHandler(db *sqlx.DB, rdb *redis.Client, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		services := make(map[string]entities.ServiceStatus)

		// Check postgres
		pgstatus := entities.HealthOK
		pgDetails := "Postgres Connected"
		if err := db.PingContext(ctx); err != nil {
			pgstatus = entities.HealthDown
			pgDetails = err.Error()
		}
		services["postgres"] = entities.ServiceStatus{
			Status:  pgstatus,
			Details: pgDetails,
		}

		// Redis is optional; only report it when configured
		if rdb != nil {
			redisStatus := entities.HealthOK
			redisDetails := "Redis Connected"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = entities.HealthDown
				redisDetails = err.Error()
			}
			services["redis"] = entities.ServiceStatus{
				Status:  redisStatus,
				Details: redisDetails,
			}
		}

		overallStatus := entities.HealthOK
		for _, svc := range services {
			if svc.Status != entities.HealthOK {
				overallStatus = entities.HealthDown
				break
			}
		}

		now := time.Now()
		uptime := now.Sub(upSince).Round(time.Second).String()

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince.UTC(),
			Uptime:   uptime,
		}

		w.Header().Set("Content-Type", "application/json")
		if overallStatus != entities.HealthOK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
