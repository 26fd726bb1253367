package auth

import (
	"errors"
	"fmt"

	"innpilot/reservation-sync/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid session token")

// StaffSession is an already-verified operator session
type StaffSession struct {
	StaffID  string
	TenantID string
	Role     constants.StaffRole
}

// CanSync reports whether the session may run syncs for tenantID
func (s *StaffSession) CanSync(tenantID string) bool {
	return s != nil && tenantID != "" && s.TenantID == tenantID
}

// SessionClaims is the JWT payload issued by the staff login service.
// Subject carries the staff id.
type SessionClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ParseSessionToken verifies an HS256 session token and returns the session it carries
func ParseSessionToken(secret, raw string) (*StaffSession, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || claims.Subject == "" || claims.TenantID == "" {
		return nil, ErrInvalidSession
	}

	role := constants.RoleStaff
	if constants.StaffRole(claims.Role) == constants.RoleAdmin {
		role = constants.RoleAdmin
	}

	return &StaffSession{
		StaffID:  claims.Subject,
		TenantID: claims.TenantID,
		Role:     role,
	}, nil
}
