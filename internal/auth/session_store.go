package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tasktrack/tasktrack/internal/shared"
)

// SessionStore persists the single live session token of each user.
type SessionStore interface {
	// Active returns the live record of userID or shared.ErrNotFound.
	Active(ctx context.Context, userID string) (*SessionRecord, error)
	// Create stores rec unless a live record exists, in which case it returns shared.ErrAlreadyLoggedIn.
	Create(ctx context.Context, rec SessionRecord) error
	// Revoke deletes the live record of userID, if any.
	Revoke(ctx context.Context, userID string) error
}

// RedisSessionStore keeps one key per user. SET NX makes the one-session rule atomic and
// the key expires together with the token's exp claim.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisSessionStore constructs a store using the default key prefix.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "session:token:", now: time.Now}
}

// Active implements SessionStore.
func (s *RedisSessionStore) Active(ctx context.Context, userID string) (*SessionRecord, error) {
	payload, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: load session: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("auth: decode session: %w", err)
	}
	return &rec, nil
}

// Create implements SessionStore.
func (s *RedisSessionStore) Create(ctx context.Context, rec SessionRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("auth: store session: non-positive ttl %s", ttl)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}
	created, err := s.client.SetNX(ctx, s.key(rec.UserID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("auth: store session: %w", err)
	}
	if !created {
		return shared.ErrAlreadyLoggedIn
	}
	return nil
}

// Revoke implements SessionStore.
func (s *RedisSessionStore) Revoke(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) key(userID string) string {
	return s.prefix + userID
}

var _ SessionStore = (*RedisSessionStore)(nil)
