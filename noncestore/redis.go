package noncestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("nonce store backend unavailable")
	// ErrInvalidConfig is returned by constructors for missing clients or a non-positive retention.
	ErrInvalidConfig = errors.New("invalid nonce store configuration")
)

// Redis records nonces as keys with a TTL. SET NX makes StoreIfAbsent atomic
// across every process sharing the Redis deployment.
type Redis struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedis builds a Redis store. prefix defaults to "gtn"; retention must be
// at least the codec MaxAge.
func NewRedis(client redis.UniversalClient, prefix string, retention time.Duration) (*Redis, error) {
	if client == nil || retention <= 0 {
		return nil, ErrInvalidConfig
	}
	if prefix == "" {
		prefix = "gtn"
	}
	return &Redis{
		redis:     client,
		prefix:    prefix,
		retention: retention,
	}, nil
}

func (s *Redis) key(contextKey, nonce string) string {
	return s.prefix + ":" + contextKey + ":" + nonce
}

func (s *Redis) StoreIfAbsent(ctx context.Context, contextKey, nonce string, issuedAt time.Time) (bool, error) {
	stored, err := s.redis.SetNX(ctx, s.key(contextKey, nonce), issuedAt.UnixMilli(), s.retention).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return stored, nil
}

// Seen reports whether nonce is currently recorded. For diagnostics only;
// checking then storing is not atomic.
func (s *Redis) Seen(ctx context.Context, contextKey, nonce string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(contextKey, nonce)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}

func (s *Redis) Retention() time.Duration {
	return s.retention
}
