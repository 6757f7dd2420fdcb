package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationChecker reports whether a presented token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RevocationStore keeps a Redis blacklist of access tokens invalidated by
// logout. Entries expire with the token itself, so the set stays small.
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore constructs the store.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke blacklists a token until it would have expired anyway.
func (s *RevocationStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revocationKey(token), "1", ttl).Err()
}

// IsRevoked reports whether the token is blacklisted.
func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Tokens are hashed before use as keys so raw credentials never land in Redis.
func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked_token:" + hex.EncodeToString(sum[:])
}

var _ RevocationChecker = (*RevocationStore)(nil)
