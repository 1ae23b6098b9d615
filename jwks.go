package feather

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/goliatone/go-errors"
)

// JWKSKeyProvider resolves public keys from a JWK Set URL. It is an alternate
// PublicKeyProvider for deployments that publish their signing keys as a JWKS
// document rather than Feather's per-kid PEM endpoint.
type JWKSKeyProvider struct {
	jwks *keyfunc.JWKS
}

var _ PublicKeyProvider = (*JWKSKeyProvider)(nil)

// NewJWKSKeyProvider fetches and watches the JWK Set at jwksURL. Unknown key
// identifiers trigger an immediate refresh, so key rotation is picked up
// without restarting the client.
func NewJWKSKeyProvider(jwksURL string) (*JWKSKeyProvider, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to fetch JWK set")
	}
	return &JWKSKeyProvider{jwks: jwks}, nil
}

// GetKey returns the RSA public key for kid from the watched JWK set.
func (p *JWKSKeyProvider) GetKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	raw, ok := p.jwks.ReadOnlyKeys()[kid]
	if !ok {
		return nil, errors.New("no key found for kid", errors.CategoryNotFound).
			WithMetadata(map[string]any{"kid": kid})
	}
	key, ok := raw.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("key for kid is not an RSA public key", errors.CategoryInternal).
			WithMetadata(map[string]any{"kid": kid})
	}
	return key, nil
}

// Close stops the background JWKS refresh goroutine.
func (p *JWKSKeyProvider) Close() {
	p.jwks.EndBackground()
}
