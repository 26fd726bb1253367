package auth

import (
	"context"
)

type contextKey string

var staffSessionKey contextKey = "staff_session"

func SetStaffSession(ctx context.Context, session *StaffSession) context.Context {
	return context.WithValue(ctx, staffSessionKey, session)
}

// GetStaffSession returns nil when the request carries no verified session
func GetStaffSession(ctx context.Context) *StaffSession {
	if session, ok := ctx.Value(staffSessionKey).(*StaffSession); ok {
		return session
	}
	return nil
}
