// Package auth persists the bearer token that gates every remote call
// and keeps it fresh. Storage is a two-tier strategy: the OS keystore
// when one is available, otherwise a permission-restricted JSON file
// under ~/.lasso.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Method is how the user authenticated.
type Method string

const (
	MethodEmail  Method = "email"
	MethodGoogle Method = "google"
	MethodWallet Method = "wallet"
)

// Credentials is the persisted authentication state. Exactly one set
// exists per profile; there is no multi-account support.
type Credentials struct {
	Token      string `json:"token"`
	ExpiresAt  int64  `json:"expiresAt"`
	AuthMethod Method `json:"authMethod"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
}

// msThreshold separates second-precision from millisecond-precision
// timestamps. Values above it cannot be plausible epoch seconds.
const msThreshold = int64(1e12)

// IsExpired reports whether an expiry timestamp has passed. The backend
// is inconsistent about units, so anything above msThreshold is read as
// milliseconds and everything else as seconds.
func IsExpired(expiresAt int64) bool {
	if expiresAt <= 0 {
		return true
	}
	var expiry time.Time
	if expiresAt > msThreshold {
		expiry = time.UnixMilli(expiresAt)
	} else {
		expiry = time.Unix(expiresAt, 0)
	}
	return time.Now().After(expiry)
}

// EffectiveExpiry returns the stored expiry, falling back to the
// token's exp claim when the auth response omitted expires_at. The
// claim is read unverified; the backend stays the authority on
// whether the token is actually accepted.
func (c Credentials) EffectiveExpiry() int64 {
	if c.ExpiresAt > 0 {
		return c.ExpiresAt
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}
