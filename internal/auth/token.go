package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims extends the registered JWT claims with the principal's role.
// Subject carries the principal ID; iat/exp bound the session lifetime.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// TokenManager issues, verifies, and refreshes HS256-signed session tokens.
//
// The signing secret is injected once at startup and never reloaded:
// rotating it deliberately invalidates every outstanding token.
type TokenManager struct {
	secret       []byte
	lifetime     time.Duration
	refreshGrace time.Duration

	// now is the clock source, overridable in tests.
	now func() time.Time
}

// NewTokenManager creates a token manager with the given signing secret,
// token lifetime, and refresh grace window.
func NewTokenManager(secret string, lifetime, refreshGrace time.Duration) *TokenManager {
	return &TokenManager{
		secret:       []byte(secret),
		lifetime:     lifetime,
		refreshGrace: refreshGrace,
		now:          time.Now,
	}
}

// Issue creates a signed token for the principal with issued-at = now and
// expires-at = now + lifetime. The output is a compact URL-safe JWT and
// carries no secret material.
func (m *TokenManager) Issue(userID string, role Role) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			ID:        uuid.NewString(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature, signing method, and expiry, and
// returns the embedded claims.
//
// The HS256 method allowlist rejects alg-header downgrade ("none") and
// asymmetric-confusion tokens before the signature is even checked. A token
// is invalid from the exact moment of its expiry (no leeway). Expired
// tokens map to ErrTokenExpired; every other failure maps to ErrTokenInvalid.
func (m *TokenManager) Verify(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if !IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return claims, nil
}

// Refresh exchanges a token whose signature still verifies for a brand-new
// token with fresh issued-at/expires-at and the same subject and role.
//
// Expiry is checked with a relaxed bound: the old token is accepted while
// now < expires-at + refreshGrace. Beyond the grace window the caller must
// sign in again.
func (m *TokenManager) Refresh(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" || !IsValidRole(claims.Role) {
		return "", ErrTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return "", fmt.Errorf("%w: missing expiry", ErrTokenInvalid)
	}

	if !m.now().Before(claims.ExpiresAt.Time.Add(m.refreshGrace)) {
		return "", ErrTokenExpired
	}

	return m.Issue(claims.Subject, claims.Role)
}

// Lifetime returns the configured token lifetime.
func (m *TokenManager) Lifetime() time.Duration {
	return m.lifetime
}

func (m *TokenManager) keyFunc(_ *jwt.Token) (any, error) {
	return m.secret, nil
}
