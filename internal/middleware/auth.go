package middleware

import (
	"net/http"
	"strings"

	"innpilot/reservation-sync/internal/auth"
	"innpilot/reservation-sync/internal/logging"
)

// SessionMiddleware verifies the staff session token and stores the session
// in the request context. Requests without a valid session get 401.
func SessionMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized. Missing session token", http.StatusUnauthorized)
				return
			}

			session, err := auth.ParseSessionToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				logging.Debug("Rejected session token", "error", err.Error(), "path", r.URL.Path)
				http.Error(w, "Unauthorized. Invalid session token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetStaffSession(r.Context(), session)))
		})
	}
}
