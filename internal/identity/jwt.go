package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/civiceye/civiceye/internal/shared"
)

// TokenVerifier is the contract the credential resolver requires from the
// identity provider: verify a bearer token and yield its subject identifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (subject string, err error)
}

// JWTService issues and verifies HS256 access tokens. It is the built-in
// identity provider backing; an external provider can replace it behind the
// TokenVerifier seam.
type JWTService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewJWTService constructs a JWTService.
func NewJWTService(signingKey, issuer string, ttl time.Duration) *JWTService {
	return &JWTService{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// TTL exposes the configured access token lifetime.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// Issue mints an access token for the given user.
func (s *JWTService) Issue(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates the token signature and expiry and returns the subject.
func (s *JWTService) Verify(ctx context.Context, raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !parsed.Valid {
		return "", shared.ErrInvalidCredential
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", shared.ErrInvalidCredential
	}
	return claims.Subject, nil
}

var _ TokenVerifier = (*JWTService)(nil)

// errSigningKeyMissing guards against booting with an empty secret.
var errSigningKeyMissing = errors.New("identity: signing key must not be empty")

// Validate reports configuration errors before the service is used.
func (s *JWTService) Validate() error {
	if len(s.signingKey) == 0 {
		return errSigningKeyMissing
	}
	return nil
}
