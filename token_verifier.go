package feather

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// algRS256 is the only signature algorithm Feather tokens may use. The
// allow-list closes algorithm-confusion attacks: "none" and any HMAC or EC
// algorithm fail before the key is ever fetched.
const algRS256 = "RS256"

// Principal is the minimal verified identity produced by ID-token
// verification. Callers enrich it with a user fetch when they need more.
type Principal struct {
	ID string
}

// VerifySessionToken decodes and verifies a Feather session token against the
// public key resolved through keys, returning the session it represents.
//
// Structural, signature and claim failures are deliberately indistinguishable:
// all surface as ErrTokenInvalid. Errors from the key provider itself
// propagate unchanged. An expired but otherwise valid token does not fail;
// the returned session has status "stale" instead of "active", since session
// staleness is a state the data model represents, not an error.
func VerifySessionToken(ctx context.Context, tokenString string, keys PublicKeyProvider) (*Session, error) {
	claims := &SessionClaims{}
	if err := parseSignedToken(ctx, tokenString, claims, keys); err != nil {
		return nil, err
	}

	if claims.Issuer != ExpectedIssuer {
		return nil, ErrTokenInvalid
	}
	if !strings.HasPrefix(claims.Subject, UserIDPrefix) {
		return nil, ErrTokenInvalid
	}
	if !strings.HasPrefix(audience(claims.RegisteredClaims), ProjectIDPrefix) {
		return nil, ErrTokenInvalid
	}
	if !strings.HasPrefix(claims.SessionID, SessionIDPrefix) {
		return nil, ErrTokenInvalid
	}

	status := SessionStatusActive
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		status = SessionStatusStale
	}

	var createdAt *time.Time
	if claims.CreatedAt != nil {
		createdAt = &claims.CreatedAt.Time
	}

	return &Session{
		ID:        claims.SessionID,
		Status:    status,
		Token:     tokenString,
		UserID:    claims.Subject,
		CreatedAt: createdAt,
		RevokedAt: nil,
	}, nil
}

// VerifyIDToken decodes and verifies a Feather ID token, returning the
// minimal principal it identifies. Unlike session tokens, an ID token has no
// staleness dimension, so an expired token fails with ErrTokenExpired.
func VerifyIDToken(ctx context.Context, tokenString string, keys PublicKeyProvider) (*Principal, error) {
	claims := &IDClaims{}
	if err := parseSignedToken(ctx, tokenString, claims, keys); err != nil {
		return nil, err
	}

	if claims.Issuer != ExpectedIssuer {
		return nil, ErrTokenInvalid
	}
	if !strings.HasPrefix(claims.Subject, UserIDPrefix) {
		return nil, ErrTokenInvalid
	}
	if !strings.HasPrefix(audience(claims.RegisteredClaims), ProjectIDPrefix) {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	return &Principal{ID: claims.Subject}, nil
}

// parseSignedToken decodes tokenString into claims and checks its signature.
// Claim-level validation is done by the callers; the parser only enforces the
// algorithm allow-list and the presence of a key identifier.
func parseSignedToken(ctx context.Context, tokenString string, claims jwt.Claims, keys PublicKeyProvider) error {
	var providerErr error

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{algRS256}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrTokenInvalid
		}
		key, err := keys.GetKey(ctx, kid)
		if err != nil {
			providerErr = err
			return nil, err
		}
		return key, nil
	})
	if err != nil {
		// Key lookup failures are the one error class that surfaces verbatim;
		// everything else collapses into the uniform invalid-token shape.
		if providerErr != nil {
			return providerErr
		}
		return ErrTokenInvalid
	}
	return nil
}
