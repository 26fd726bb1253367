package middleware

import (
	"net"
	"net/http"
	"sync"

	"innpilot/reservation-sync/internal/auth"

	"golang.org/x/time/rate"
)

// TenantRateLimiter throttles expensive endpoints per tenant, falling back
// to the client IP when no session is present
type TenantRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewTenantRateLimiter(limit rate.Limit, burst int) *TenantRateLimiter {
	return &TenantRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *TenantRateLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters[key] = limiter
	return limiter
}

func (l *TenantRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:"
		if session := auth.GetStaffSession(r.Context()); session != nil {
			key = "tenant:" + session.TenantID
		} else {
			ip, _, _ := net.SplitHostPort(r.RemoteAddr)
			key += ip
		}

		if !l.getLimiter(key).Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
