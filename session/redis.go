package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisMirror stores the fields of one client session in a Redis hash.
type RedisMirror struct {
	redis redis.UniversalClient
	key   string
}

// NewRedisMirror returns a mirror stored under "<prefix>:mirror:<clientID>".
func NewRedisMirror(rdb redis.UniversalClient, prefix, clientID string) *RedisMirror {
	if prefix == "" {
		prefix = "ga"
	}
	return &RedisMirror{
		redis: rdb,
		key:   prefix + ":mirror:" + clientID,
	}
}

// Key returns the Redis key of the hash.
func (m *RedisMirror) Key() string {
	return m.key
}

func (m *RedisMirror) Get(ctx context.Context, field string) (string, bool, error) {
	v, err := m.redis.HGet(ctx, m.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	return v, true, nil
}

func (m *RedisMirror) Set(ctx context.Context, field, value string) error {
	if err := m.redis.HSet(ctx, m.key, field, value).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	return nil
}

func (m *RedisMirror) Delete(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := m.redis.HDel(ctx, m.key, fields...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	return nil
}

// Apply writes set and removes del in one MULTI/EXEC transaction.
func (m *RedisMirror) Apply(ctx context.Context, set map[string]string, del []string) error {
	_, err := m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			values := make(map[string]interface{}, len(set))
			for k, v := range set {
				values[k] = v
			}
			pipe.HSet(ctx, m.key, values)
		}
		if len(del) > 0 {
			pipe.HDel(ctx, m.key, del...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	return nil
}
