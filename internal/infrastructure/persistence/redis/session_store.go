package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore keeps opaque auth session tokens in Redis.
//
// A token maps to the owning user ID under "session:{token}" with a sliding
// TTL: every successful resolve refreshes the expiry. Logout deletes the
// key, which immediately revokes the token on every instance.
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionStore creates a new SessionStore. A non-positive ttl falls back
// to TTLSessionToken.
func NewSessionStore(cache *Cache, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = TTLSessionToken
	}
	return &SessionStore{cache: cache, ttl: ttl}
}

// Save stores a token for a user.
func (s *SessionStore) Save(ctx context.Context, token, userID string) error {
	if token == "" || userID == "" {
		return shared.ErrInvalidID
	}

	if err := s.cache.SetString(ctx, s.key(token), userID, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Resolve returns the user ID for a token and refreshes its TTL.
// Returns shared.ErrSessionExpired for unknown or expired tokens.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", shared.ErrSessionExpired
	}

	userID, err := s.cache.GetString(ctx, s.key(token))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", shared.ErrSessionExpired
		}
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}

	// Sliding expiry; a failure here only shortens the session.
	_ = s.cache.Expire(ctx, s.key(token), s.ttl)

	return userID, nil
}

// Revoke deletes a token. Revoking an unknown token is not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.cache.Delete(ctx, s.key(token)); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

func (s *SessionStore) key(token string) string {
	return PrefixSession + token
}
