package feather

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpectedIssuer is the issuer every Feather token must carry.
const ExpectedIssuer = "feather.id"

// SessionClaims is the payload of a Feather session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string           `json:"ses,omitempty"`
	CreatedAt *jwt.NumericDate `json:"cat,omitempty"`
}

// IDClaims is the payload of a Feather ID token.
type IDClaims struct {
	jwt.RegisteredClaims
}

// Expires returns the expiry time, or the zero time when the claim is absent.
func (c *SessionClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// Expires returns the expiry time, or the zero time when the claim is absent.
func (c *IDClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// audience returns the first audience entry of a registered claim set.
func audience(rc jwt.RegisteredClaims) string {
	if len(rc.Audience) == 0 {
		return ""
	}
	return rc.Audience[0]
}
