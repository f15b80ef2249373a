package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the lockout backend is unreachable.
var ErrUnavailable = errors.New("lockout backend unavailable")

// RedisLimiter counts failed logins per user in Redis. The counter expires
// Duration after the first failure of a window, so a lockout lifts on its
// own.
type RedisLimiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

// NewRedisLimiter returns a limiter storing counters under "<prefix>:alo:<user>".
func NewRedisLimiter(rdb redis.UniversalClient, prefix string, cfg Config) *RedisLimiter {
	if prefix == "" {
		prefix = "ga"
	}
	return &RedisLimiter{redis: rdb, prefix: prefix, config: cfg}
}

func (l *RedisLimiter) key(user string) string {
	return l.prefix + ":alo:" + user
}

// RecordFailure increments the counter for user and reports whether the
// threshold has been reached.
func (l *RedisLimiter) RecordFailure(ctx context.Context, user string) (bool, error) {
	if l.config.Threshold <= 0 || user == "" {
		return false, nil
	}

	count, err := l.redis.Incr(ctx, l.key(user)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 && l.config.Duration > 0 {
		if err := l.redis.Expire(ctx, l.key(user), l.config.Duration).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return count >= int64(l.config.Threshold), nil
}

// Locked reports whether user has reached the threshold and how long the
// lock remains.
func (l *RedisLimiter) Locked(ctx context.Context, user string) (bool, time.Duration, error) {
	if l.config.Threshold <= 0 || user == "" {
		return false, 0, nil
	}

	count, err := l.redis.Get(ctx, l.key(user)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count < int64(l.config.Threshold) {
		return false, 0, nil
	}

	ttl, err := l.redis.TTL(ctx, l.key(user)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, max(ttl, 0), nil
}

// Reset clears the counter for user.
func (l *RedisLimiter) Reset(ctx context.Context, user string) error {
	if user == "" {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(user)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
