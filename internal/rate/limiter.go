package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning parameters.
type Config struct {
	// Prefix namespaces every key. Defaults to "redeem".
	Prefix string
	// MaxFailures is the number of failures tolerated per window.
	MaxFailures int
	// Window is the lifetime of a counter, starting at its first failure.
	Window time.Duration
	// PerIP additionally throttles by caller address.
	PerIP bool
}

// Limiter counts failed redemptions per client and, optionally, per IP.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) (*Limiter, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("%w: redis client is nil", ErrInvalidConfig)
	}
	if cfg.MaxFailures <= 0 {
		return nil, fmt.Errorf("%w: MaxFailures must be > 0", ErrInvalidConfig)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: Window must be > 0", ErrInvalidConfig)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "redeem"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}, nil
}

// Check returns ErrRateLimited when clientID or ip has exhausted its budget.
// It does not count as an attempt. An empty clientID is not tracked.
func (l *Limiter) Check(ctx context.Context, clientID, ip string) error {
	if clientID != "" {
		if err := l.checkCounter(ctx, l.clientKey(clientID)); err != nil {
			return err
		}
	}

	if l.config.PerIP && ip != "" {
		if err := l.checkCounter(ctx, l.ipKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// Fail records a failed redemption. It returns ErrRateLimited when this
// failure exhausts the budget.
func (l *Limiter) Fail(ctx context.Context, clientID, ip string) error {
	limited := false
	if clientID != "" {
		count, err := l.incrementWithTTL(ctx, l.clientKey(clientID))
		if err != nil {
			return err
		}
		limited = count >= int64(l.config.MaxFailures)
	}

	if l.config.PerIP && ip != "" {
		count, err := l.incrementWithTTL(ctx, l.ipKey(ip))
		if err != nil {
			return err
		}
		limited = limited || count >= int64(l.config.MaxFailures)
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

// Failures returns the current failure count for clientID. Missing keys
// return zero.
func (l *Limiter) Failures(ctx context.Context, clientID string) (int, error) {
	count, err := l.redis.Get(ctx, l.clientKey(clientID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) clientKey(id string) string {
	return l.config.Prefix + ":client:" + id
}

func (l *Limiter) ipKey(ip string) string {
	return l.config.Prefix + ":ip:" + ip
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxFailures) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: the TTL is set only on the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
