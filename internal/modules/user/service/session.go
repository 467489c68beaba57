package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks the single live token of each user.
type SessionStore interface {
	Start(ctx context.Context, userID uint, tokenID string, ttl time.Duration) error
	IsActive(ctx context.Context, userID uint, tokenID string) (bool, error)
	End(ctx context.Context, userID uint) error
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore falls back to plain stateless tokens when client is nil.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("session:user:%d", userID)
}

// Start overwrites the previous token id, which revokes the older session.
func (s *redisSessionStore) Start(ctx context.Context, userID uint, tokenID string, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	return s.client.Set(ctx, sessionKey(userID), tokenID, ttl).Err()
}

func (s *redisSessionStore) IsActive(ctx context.Context, userID uint, tokenID string) (bool, error) {
	if s.client == nil {
		return true, nil
	}
	current, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current == tokenID, nil
}

func (s *redisSessionStore) End(ctx context.Context, userID uint) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, sessionKey(userID)).Err()
}
