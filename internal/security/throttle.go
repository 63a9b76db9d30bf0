package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle counts failed logins per key and locks the key out after too many.
type Throttle interface {
	Locked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

func NewRedisThrottle(client *redis.Client, maxFailures int, lockout time.Duration) *RedisThrottle {
	if maxFailures < 1 {
		maxFailures = 5
	}
	if lockout <= 0 {
		lockout = 15 * time.Minute
	}
	return &RedisThrottle{client: client, max: int64(maxFailures), lockout: lockout}
}

// RedisThrottle keeps one counter per key; the counter expires lockout
// after the first failure of a window.
type RedisThrottle struct {
	client  *redis.Client
	max     int64
	lockout time.Duration
}

func (r *RedisThrottle) Locked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Get(ctx, throttleKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	return n >= r.max, nil
}

func (r *RedisThrottle) Fail(ctx context.Context, key string) error {
	k := throttleKey(key)
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("redis incr failed: %w", err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.lockout).Err(); err != nil {
			return fmt.Errorf("redis expire failed: %w", err)
		}
	}
	return nil
}

func (r *RedisThrottle) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, throttleKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func throttleKey(key string) string {
	return "login:fail:" + strings.ToLower(key)
}

// NopThrottle never locks anyone out. Used when no Redis is configured.
type NopThrottle struct{}

func (NopThrottle) Locked(context.Context, string) (bool, error) { return false, nil }
func (NopThrottle) Fail(context.Context, string) error { return nil }
func (NopThrottle) Reset(context.Context, string) error { return nil }

// IPBlocklist is a static set of refused client addresses.
type IPBlocklist map[string]struct{}

func NewIPBlocklist(ips []string) IPBlocklist {
	b := IPBlocklist{}
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			b[ip] = struct{}{}
		}
	}
	return b
}

func (b IPBlocklist) Blocked(ip string) bool {
	_, ok := b[ip]
	return ok
}
