package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitError carries how long the caller has to wait before retrying.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckAndSet acquires a per-user lock for an action using SetNX.
// Returns false if the action is still rate limited.
// A nil redis client disables rate limiting (useful in tests / local dev without Redis).
func CheckAndSet(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, limit time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	key := limitKey(userID, action)

	wasSet, err := rdb.SetNX(ctx, key, "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

// TTL returns the remaining cooldown for an action.
func TTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, limitKey(userID, action)).Result()
}

// Clear removes the cooldown, e.g. when the rate-limited action failed and
// the user should be allowed to retry immediately.
func Clear(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, limitKey(userID, action)).Result()
	return err
}

func limitKey(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}
