package feather

import (
	"context"
	"crypto/rsa"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// PublicKeyProvider resolves the RSA public key for a token's key identifier.
// Lookup failures surface to the verifier's caller unchanged.
type PublicKeyProvider interface {
	GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// PublicKey is a project public key as served by the Feather API.
type PublicKey struct {
	ID  string `json:"id,omitempty"`
	PEM string `json:"pem,omitempty"`
}

// CachingKeyProvider memoizes public keys by key identifier for the lifetime
// of the process. Keys are effectively immutable, so there is no TTL and no
// eviction. Concurrent misses for the same kid may each trigger a fetch; the
// fetch is idempotent and last write wins, so the redundancy is harmless.
type CachingKeyProvider struct {
	resource PublicKeys

	mu   sync.Mutex
	keys map[string]*rsa.PublicKey
}

var _ PublicKeyProvider = (*CachingKeyProvider)(nil)

// NewCachingKeyProvider returns a provider that fetches keys through the
// given resource client and caches them indefinitely.
func NewCachingKeyProvider(resource PublicKeys) *CachingKeyProvider {
	return &CachingKeyProvider{
		resource: resource,
		keys:     make(map[string]*rsa.PublicKey),
	}
}

// GetKey returns the cached key for kid, fetching and caching it on a miss.
// Fetch failures propagate to the caller and are never cached.
func (p *CachingKeyProvider) GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	p.mu.Lock()
	key, ok := p.keys[kid]
	p.mu.Unlock()
	if ok {
		return key, nil
	}

	pubKey, err := p.resource.Retrieve(ctx, kid)
	if err != nil {
		return nil, err
	}

	key, err = jwt.ParseRSAPublicKeyFromPEM([]byte(pubKey.PEM))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse public key PEM")
	}

	p.mu.Lock()
	p.keys[kid] = key
	p.mu.Unlock()

	return key, nil
}
