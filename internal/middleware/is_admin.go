package middleware

import (
	"net/http"

	"innpilot/reservation-sync/internal/auth"
	"innpilot/reservation-sync/internal/constants"
)

// IsAdminMiddleware lets only admin sessions through. It must run after SessionMiddleware.
func IsAdminMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := auth.GetStaffSession(r.Context())
			if session == nil || session.Role != constants.RoleAdmin {
				http.Error(w, "Forbidden. Need admin role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
