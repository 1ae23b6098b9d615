package feather

import "time"

// Identifier prefixes for the three principal kinds Feather issues. Token
// claims are rejected unless they carry the matching prefix.
const (
	UserIDPrefix    = "USR_"
	ProjectIDPrefix = "PRJ_"
	SessionIDPrefix = "SES_"
)

// CredentialStatus is the lifecycle status of a credential.
type CredentialStatus = string

const (
	// CredentialStatusRequiresVerificationCode means the credential is waiting
	// for the emailed code to be supplied via an update call.
	CredentialStatusRequiresVerificationCode CredentialStatus = "requires_verification_code"
	// CredentialStatusValid means the credential was verified and carries a
	// one-time token.
	CredentialStatusValid CredentialStatus = "valid"
	// CredentialStatusInvalid means the proof of identity was rejected.
	CredentialStatusInvalid CredentialStatus = "invalid"
	// CredentialStatusExpired means the credential aged out before verification.
	CredentialStatusExpired CredentialStatus = "expired"
)

// SessionStatus is the status of a session, derivable either locally from the
// session token's claims or authoritatively from the server.
type SessionStatus = string

const (
	// SessionStatusActive means the session token is current.
	SessionStatusActive SessionStatus = "active"
	// SessionStatusStale means the session token is past expiry but the
	// session itself has not been revoked.
	SessionStatusStale SessionStatus = "stale"
	// SessionStatusRevoked means the server revoked the session.
	SessionStatusRevoked SessionStatus = "revoked"
)

// Credential is a short-lived proof-of-identity claim. It is created by a
// credentials-create call, mutated exactly once by supplying a verification
// code, and immutable once valid, invalid or expired.
type Credential struct {
	ID        string           `json:"id,omitempty"`
	Status    CredentialStatus `json:"status,omitempty"`
	Token     string           `json:"token,omitempty"`
	Type      string           `json:"type,omitempty"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
}

// Session is a server-side authentication session bound to a user. The token,
// once issued, is immutable; only the status mutates.
type Session struct {
	ID        string        `json:"id,omitempty"`
	Status    SessionStatus `json:"status,omitempty"`
	Token     string        `json:"token,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
	RevokedAt *time.Time    `json:"revoked_at,omitempty"`
}

// TokenBundle is the three-token bundle issued to an authenticated user. The
// ID token is short-lived and locally verifiable; the refresh token is
// long-lived and used only to mint new bundles.
type TokenBundle struct {
	IDToken      string `json:"id_token,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// User is an authenticated or anonymous principal.
type User struct {
	ID              string         `json:"id,omitempty"`
	Email           string         `json:"email,omitempty"`
	Username        string         `json:"username,omitempty"`
	IsEmailVerified bool           `json:"is_email_verified,omitempty"`
	IsAnonymous     bool           `json:"is_anonymous,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Tokens          *TokenBundle   `json:"tokens,omitempty"`
	CreatedAt       *time.Time     `json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
}

// AddMetadata sets a single metadata entry, allocating the map on first use,
// and returns the user for chaining.
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// idToken returns the user's ID token, tolerating a nil bundle.
func (u *User) idToken() string {
	if u == nil || u.Tokens == nil {
		return ""
	}
	return u.Tokens.IDToken
}

// refreshToken returns the user's refresh token, tolerating a nil bundle.
func (u *User) refreshToken() string {
	if u == nil || u.Tokens == nil {
		return ""
	}
	return u.Tokens.RefreshToken
}

// accessToken returns the user's access token, tolerating a nil bundle.
func (u *User) accessToken() string {
	if u == nil || u.Tokens == nil {
		return ""
	}
	return u.Tokens.AccessToken
}

// State is the single local application record: the current credential,
// session and user on this client. Exactly one record exists per client
// instance, keyed "current" in the backing store.
type State struct {
	Credential *Credential `json:"credential"`
	Session    *Session    `json:"session"`
	User       *User       `json:"user"`
}
