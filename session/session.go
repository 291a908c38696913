package session

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/lucafab/magazzino/internal/errors"
)

// RoleType identifies what a logged-in user is allowed to do.
type RoleType string

const (
	RoleAdmin RoleType = "admin"
	RoleGuest RoleType = "guest"
)

// Session is the client-held identity derived from a gateway-issued token.
// It is passed explicitly into every authenticated gateway call; nothing in
// this module reads it from ambient state.
type Session struct {
	Token    string
	Username string
	Role     RoleType
	Expiry   time.Time
}

// ActiveAt reports whether the session is usable at the given instant.
// A session is active iff it holds a token whose expiry is strictly in the
// future; every other state is inactive.
func (s *Session) ActiveAt(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.Expiry.After(now)
}

// Credentials is the shape persisted across restarts. Username and role are
// stored alongside the token, but expiry is always re-derived from the token
// itself so a stale identity pair cannot outlive it.
type Credentials struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// decodeExpiry extracts the exp claim from a raw JWT without verifying the
// signature. The client holds no verification key; the gateway is the only
// party that ever validates the token.
func decodeExpiry(rawToken string) (time.Time, error) {
	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, apperrors.Wrapf(err, "parse token")
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return time.Time{}, apperrors.ErrTokenMalformed
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, apperrors.ErrTokenMalformed
	}
	return time.Unix(int64(exp), 0), nil
}
