// Package usage tracks per-user monthly operation counters in redis and
// enforces the free plan's monthly cap. Counting is best-effort: when redis
// is down the API keeps serving and the miss is logged.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/docforge/docforge/internal/logging"
)

// counterTTL outlives the month it counts so late reads still resolve.
const counterTTL = 62 * 24 * time.Hour

// store is the slice of redis the counter needs; tests substitute a fake.
type store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type redisStore struct {
	inner *redis.Client
}

func (s *redisStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.inner.Incr(ctx, key).Result()
}

func (s *redisStore) Get(ctx context.Context, key string) (int64, error) {
	n, err := s.inner.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *redisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.inner.Expire(ctx, key, ttl).Err()
}

// Counter reads and bumps monthly usage. A nil Counter (or one built with an
// empty address) disables enforcement entirely.
type Counter struct {
	store  store
	cap    int64
	logger logging.Logger
	now    func() time.Time
}

// NewCounter connects to redis at addr. An empty addr returns a disabled
// counter so development setups without redis keep working.
func NewCounter(addr string, monthlyCap int64, logger logging.Logger) *Counter {
	if addr == "" {
		return &Counter{cap: monthlyCap, logger: logger, now: time.Now}
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &Counter{store: &redisStore{inner: client}, cap: monthlyCap, logger: logger, now: time.Now}
}

func newCounterWithStore(s store, monthlyCap int64, logger logging.Logger) *Counter {
	return &Counter{store: s, cap: monthlyCap, logger: logger, now: time.Now}
}

func (c *Counter) key(userID string) string {
	return fmt.Sprintf("usage:%s:%s", userID, c.now().Format("2006-01"))
}

// Allow reports whether the user may run another operation this month.
// Premium users are never limited. Redis errors fail open.
func (c *Counter) Allow(ctx context.Context, userID, plan string) bool {
	if c == nil || c.store == nil || plan != "free" {
		return true
	}
	n, err := c.store.Get(ctx, c.key(userID))
	if err != nil {
		c.logger.Warn(ctx, "usage read failed, allowing request", "user", userID, "error", err)
		return true
	}
	return n < c.cap
}

// Record bumps this month's counter. Failures are logged, never surfaced.
func (c *Counter) Record(ctx context.Context, userID string) {
	if c == nil || c.store == nil {
		return
	}
	key := c.key(userID)
	n, err := c.store.Incr(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "usage increment failed", "user", userID, "error", err)
		return
	}
	// Only a fresh key needs its expiry armed.
	if n == 1 {
		if err := c.store.Expire(ctx, key, counterTTL); err != nil {
			c.logger.Warn(ctx, "usage expire failed", "key", key, "error", err)
		}
	}
}

// Count returns this month's usage for the user, zero when disabled.
func (c *Counter) Count(ctx context.Context, userID string) int64 {
	if c == nil || c.store == nil {
		return 0
	}
	n, err := c.store.Get(ctx, c.key(userID))
	if err != nil {
		c.logger.Warn(ctx, "usage read failed", "user", userID, "error", err)
		return 0
	}
	return n
}
