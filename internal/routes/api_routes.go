package routes

import (
	"time"

	"innpilot/reservation-sync/internal/api"
	"innpilot/reservation-sync/internal/middleware"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// Full syncs are heavy on the PMS; allow a short burst, then one per minute per tenant
const (
	syncRateEvery = time.Minute
	syncRateBurst = 3
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, sessionSecret string) {
	syncLimiter := middleware.NewTenantRateLimiter(rate.Every(syncRateEvery), syncRateBurst)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.SessionMiddleware(sessionSecret)) // all routes need a staff session

		v1.Route("/integrations/motopress", func(mp chi.Router) {
			mp.With(syncLimiter.Middleware).Get("/sync-all", handlers.SyncAll())
			mp.Post("/test-connection", handlers.TestConnection())
			mp.Get("/sync-history", handlers.SyncHistory())

			// Admin-only group
			mp.Group(func(admin chi.Router) {
				admin.Use(middleware.IsAdminMiddleware())
				admin.Post("/link-accommodations", handlers.LinkAccommodations())
			})
		})
	})
}
