package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CheckAndSet takes a per-user cooldown lock for the given action. Returns
// true when the action is allowed (and the lock is now held for the cooldown
// window). A nil client always allows.
func CheckAndSet(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, cooldown time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)

	wasSet, err := rdb.SetNX(ctx, key, "locked", cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func TTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
	return rdb.TTL(ctx, key).Result()
}

// RetryIn reports how long the caller should wait before retrying the
// action, from the lock's remaining TTL. Falls back to the full cooldown
// when the TTL is unavailable.
func RetryIn(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, cooldown time.Duration) time.Duration {
	if ttl, err := TTL(ctx, rdb, userID, action); err == nil && ttl > 0 {
		return ttl
	}
	return cooldown
}

// Clear releases the cooldown early, used when the rate-limited action fails
// after the lock was taken.
func Clear(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) error {
	if rdb == nil {
		return nil
	}
	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
	_, err := rdb.Del(ctx, key).Result()
	return err
}
