package routes

import (
	"net/http"
	"time"

	"innpilot/reservation-sync/internal/api"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
)

// RouterOptions carries the settings the router needs beyond the dependency container
type RouterOptions struct {
	SessionSecret     string
	HeartbeatInterval time.Duration
	UpSince           time.Time
}

func RegisterRoutes(deps *api.Dependencies, sqlxDB *sqlx.DB, opts RouterOptions) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.InFlightMiddleware(deps.Metrics))
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	logging.Info("Router initialized with metrics and logging middleware")
	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(sqlxDB, deps.Redis, opts.UpSince))

	handlers := api.NewHandlers(deps, opts.HeartbeatInterval)

	RegisterAPIRoutes(r, handlers, opts.SessionSecret)

	return r
}
