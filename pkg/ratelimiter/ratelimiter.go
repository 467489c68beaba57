package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"chattr.app/backend/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

func key(userID uint, action string) string {
	return fmt.Sprintf("rate_limit:user:%d:%s", userID, action)
}

// CheckAndSetRateLimit reports whether the action is allowed and starts the cooldown when it is.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uint, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uint, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, action)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uint, action string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(userID, action)).Result()
	return err
}

// Guard checks the cooldown and returns a RateLimitError carrying the remaining wait when it is still active.
func Guard(ctx context.Context, rdb *redis.Client, userID uint, action string, limit time.Duration) error {
	allowed, err := CheckAndSetRateLimit(ctx, rdb, userID, action, limit)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}
	ttl, _ := GetRateLimitTTL(ctx, rdb, userID, action)
	return &RateLimitError{
		Message:    fmt.Sprintf("You are doing that too fast. Please wait %.0f seconds.", ttl.Seconds()),
		RetryAfter: ttl,
	}
}
