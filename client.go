package feather

import (
	"context"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Client is the stateful entry point of the SDK. It owns the HTTP gateway,
// the resource clients, the local state store and the state engine, and
// exposes the high-level auth flows as methods. Construct one per project
// API key and share it; all methods are safe for concurrent use.
type Client struct {
	gateway     *gateway
	credentials Credentials
	users       Users
	sessions    Sessions
	passwords   Passwords
	publicKeys  PublicKeys
	keys        PublicKeyProvider
	engine      *StateEngine
	logger      Logger
}

// New validates the API key and config and wires up a client. No I/O happens
// here; the local state record is created lazily on first use.
func New(apiKey string, cfg Config) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyInvalid
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	g := newGateway(apiKey, cfg, logger)
	users := &usersResource{gateway: g}
	publicKeys := &publicKeysResource{gateway: g}

	store := cfg.StateStore
	if store == nil {
		store = NewMemoryStateStore()
	}

	keys := cfg.Keys
	if keys == nil {
		keys = NewCachingKeyProvider(publicKeys)
	}

	return &Client{
		gateway:     g,
		credentials: &credentialsResource{gateway: g},
		users:       users,
		sessions:    &sessionsResource{gateway: g},
		passwords:   &passwordsResource{gateway: g},
		publicKeys:  publicKeys,
		keys:        keys,
		engine:      NewStateEngine(store, users, WithEngineLogger(logger)),
		logger:      logger,
	}, nil
}

// CurrentUser returns the current user, refreshing its token bundle first
// when the ID token is missing or about to expire. A nil user means signed
// out; a rejected refresh token resolves to nil rather than an error.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	return c.engine.CurrentUser(ctx)
}

// CurrentCredential returns the pending credential on this client, or nil.
func (c *Client) CurrentCredential(ctx context.Context) (*Credential, error) {
	return c.engine.CurrentCredential(ctx)
}

// CurrentSession returns the current session, or nil. The status is
// re-derived locally from the session token's expiry, so a session that aged
// out since it was stored comes back stale without a network call.
func (c *Client) CurrentSession(ctx context.Context) (*Session, error) {
	state, err := c.engine.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	session := state.Session
	if session == nil {
		return nil, nil
	}
	if session.Status == SessionStatusActive && session.Token != "" {
		if exp, err := sessionTokenExpiry(session.Token); err == nil && !exp.IsZero() && time.Now().After(exp) {
			stale := *session
			stale.Status = SessionStatusStale
			return &stale, nil
		}
	}
	return session, nil
}

// OnStateChange registers an observer invoked with the current user after
// every state transition. The observer fires once immediately with the state
// current at subscription time. The returned function unsubscribes; calling
// it more than once is harmless.
func (c *Client) OnStateChange(observer StateObserver) func() {
	return c.engine.Subscribe(context.Background(), observer)
}

// VerifySession locally verifies a session token string and returns the
// session it represents. No network round trip happens beyond the one-time
// public key fetch.
func (c *Client) VerifySession(ctx context.Context, tokenString string) (*Session, error) {
	return VerifySessionToken(ctx, tokenString, c.keys)
}

// VerifyIDToken locally verifies an ID token string and returns the minimal
// principal it identifies.
func (c *Client) VerifyIDToken(ctx context.Context, tokenString string) (*Principal, error) {
	return VerifyIDToken(ctx, tokenString, c.keys)
}

// Credentials exposes the raw credentials resource for callers that need it
// outside the high-level flows.
func (c *Client) Credentials() Credentials {
	return c.credentials
}

// Users exposes the raw users resource.
func (c *Client) Users() Users {
	return c.users
}

// Sessions exposes the raw sessions resource.
func (c *Client) Sessions() Sessions {
	return c.sessions
}

// Passwords exposes the passwords resource for registering a password
// against a verified credential.
func (c *Client) Passwords() Passwords {
	return c.passwords
}

// PublicKeys exposes the raw public keys resource.
func (c *Client) PublicKeys() PublicKeys {
	return c.publicKeys
}

// Close releases the client's background resources (the refresh timer).
func (c *Client) Close() {
	c.engine.Close()
}

// sessionTokenExpiry reads the expiry claim of a session token without
// verifying its signature.
func sessionTokenExpiry(tokenString string) (time.Time, error) {
	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, ErrTokenInvalid
	}
	return claims.Expires(), nil
}

// parseVerificationCode extracts the 'code' query parameter from a link
// confirmation callback URL.
func parseVerificationCode(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrVerificationCodeInvalid.Clone().
			WithMetadata(map[string]any{"cause": err.Error()})
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return "", verificationCodeInvalid("the provided URL is missing a 'code' query parameter")
	}
	return code, nil
}
