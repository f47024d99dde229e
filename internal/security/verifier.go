package security

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/careertrojan/ops-core/internal/model"
)

var (
	// ErrTokenInvalid is returned when a presented second factor does not
	// match the configured secret.
	ErrTokenInvalid = errors.New("two-factor token invalid")
	// ErrVerifierUnconfigured is returned when a verifier was built
	// without its secret.
	ErrVerifierUnconfigured = errors.New("two-factor verifier has no secret configured")
)

// StaticVerifier checks the presented token against a shared secret in
// constant time.
type StaticVerifier struct {
	secret []byte
}

// NewStaticVerifier creates a shared-secret verifier.
func NewStaticVerifier(secret string) model.TokenVerifier {
	return &StaticVerifier{secret: []byte(secret)}
}

// Verify compares the token against the shared secret.
func (v *StaticVerifier) Verify(_ context.Context, token string) error {
	if len(v.secret) == 0 {
		return ErrVerifierUnconfigured
	}
	if subtle.ConstantTimeCompare([]byte(token), v.secret) != 1 {
		return ErrTokenInvalid
	}
	return nil
}

// adminClaims are the claims expected on a signed admin token.
type adminClaims struct {
	jwt.RegisteredClaims
	Admin bool `json:"adm"`
}

// JWTVerifier accepts HS256-signed tokens carrying an admin claim, for
// deployments where the identity provider issues step-up tokens instead of
// sharing a static secret.
type JWTVerifier struct {
	secretKey string
}

// NewJWTVerifier creates a signed-token verifier with the provided secret key.
func NewJWTVerifier(secretKey string) model.TokenVerifier {
	return &JWTVerifier{secretKey: secretKey}
}

// Verify parses and validates the signed token and its admin claim.
func (v *JWTVerifier) Verify(_ context.Context, token string) error {
	if v.secretKey == "" {
		return ErrVerifierUnconfigured
	}

	claims := &adminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(v.secretKey), nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse admin token: %w", err)
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	if !claims.Admin {
		return ErrTokenInvalid
	}

	return nil
}
