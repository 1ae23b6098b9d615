package feather_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/feather-id/feather-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testKid       = "test-key-1"
	testUserID    = "USR_e4e87f21"
	testProjectID = "PRJ_10ac2297"
	testSessionID = "SES_80ad17a9"
)

func testKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func pemPublicKey(t *testing.T, key *rsa.PublicKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func sessionClaims(exp time.Time) *feather.SessionClaims {
	return &feather.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    feather.ExpectedIssuer,
			Subject:   testUserID,
			Audience:  jwt.ClaimStrings{testProjectID},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		SessionID: testSessionID,
		CreatedAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
}

func mintSessionToken(t *testing.T, key *rsa.PrivateKey, exp time.Time) string {
	t.Helper()
	return signToken(t, key, testKid, sessionClaims(exp))
}

func idClaims(exp time.Time) *feather.IDClaims {
	return &feather.IDClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    feather.ExpectedIssuer,
			Subject:   testUserID,
			Audience:  jwt.ClaimStrings{testProjectID},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func mintIDToken(t *testing.T, key *rsa.PrivateKey, exp time.Time) string {
	t.Helper()
	return signToken(t, key, testKid, idClaims(exp))
}

// staticKeyProvider resolves keys out of a fixed map.
type staticKeyProvider struct {
	keys map[string]*rsa.PublicKey
	err  error
}

func (p *staticKeyProvider) GetKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	if p.err != nil {
		return nil, p.err
	}
	key, ok := p.keys[kid]
	if !ok {
		return nil, feather.ErrTokenInvalid
	}
	return key, nil
}

func providerFor(key *rsa.PrivateKey) *staticKeyProvider {
	return &staticKeyProvider{keys: map[string]*rsa.PublicKey{testKid: &key.PublicKey}}
}

// MockUsers implements feather.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Create(ctx context.Context, credentialToken string) (*feather.User, error) {
	args := m.Called(ctx, credentialToken)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Retrieve(ctx context.Context, id, accessToken string) (*feather.User, error) {
	args := m.Called(ctx, id, accessToken)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, id string, metadata map[string]any, accessToken string) (*feather.User, error) {
	args := m.Called(ctx, id, metadata, accessToken)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) UpdateEmail(ctx context.Context, id, newEmail, accessToken, credentialToken string) (*feather.User, error) {
	args := m.Called(ctx, id, newEmail, accessToken, credentialToken)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, id, newPassword, accessToken, credentialToken string) (*feather.User, error) {
	args := m.Called(ctx, id, newPassword, accessToken, credentialToken)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) RefreshTokens(ctx context.Context, id, refreshToken string) (*feather.User, error) {
	args := m.Called(ctx, id, refreshToken)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) RevokeTokens(ctx context.Context, id, refreshToken string) (*feather.User, error) {
	args := m.Called(ctx, id, refreshToken)
	return userArg(args.Get(0)), args.Error(1)
}

func userArg(value any) *feather.User {
	if value == nil {
		return nil
	}
	return value.(*feather.User)
}

// testConfig points a client at a local test server.
func testConfig(t *testing.T, server *httptest.Server) feather.Config {
	t.Helper()
	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)
	return feather.Config{
		Protocol: "http",
		Host:     parsed.Hostname(),
		Port:     parsed.Port(),
	}
}
