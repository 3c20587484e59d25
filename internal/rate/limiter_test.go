package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l, err := New(rdb, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return l, mr
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	cases := []struct {
		name   string
		client redis.UniversalClient
		cfg    Config
	}{
		{"nil client", nil, Config{MaxFailures: 1, Window: time.Second}},
		{"zero max", rdb, Config{Window: time.Second}},
		{"zero window", rdb, Config{MaxFailures: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.client, tc.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestFailuresExhaustBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxFailures: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Fail(ctx, "cli", ""); err != nil {
			t.Fatalf("failure %d: unexpected %v", i, err)
		}
		if err := l.Check(ctx, "cli", ""); err != nil {
			t.Fatalf("check %d: unexpected %v", i, err)
		}
	}

	if err := l.Fail(ctx, "cli", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on third failure, got %v", err)
	}
	if err := l.Check(ctx, "cli", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited from Check, got %v", err)
	}
	if err := l.Check(ctx, "other", ""); err != nil {
		t.Fatalf("other clients must be unaffected, got %v", err)
	}

	n, err := l.Failures(ctx, "cli")
	if err != nil || n != 3 {
		t.Fatalf("expected 3 failures, got %d (%v)", n, err)
	}
}

func TestWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxFailures: 1, Window: time.Minute})
	ctx := context.Background()

	_ = l.Fail(ctx, "cli", "")
	if ttl := mr.TTL("redeem:client:cli"); ttl != time.Minute {
		t.Fatalf("expected 1m TTL, got %s", ttl)
	}

	// A second failure must not extend the window.
	mr.FastForward(30 * time.Second)
	_ = l.Fail(ctx, "cli", "")
	if ttl := mr.TTL("redeem:client:cli"); ttl != 30*time.Second {
		t.Fatalf("expected TTL to keep counting down, got %s", ttl)
	}

	mr.FastForward(31 * time.Second)
	if err := l.Check(ctx, "cli", ""); err != nil {
		t.Fatalf("expected window to reset, got %v", err)
	}
	n, _ := l.Failures(ctx, "cli")
	if n != 0 {
		t.Fatalf("expected 0 failures after expiry, got %d", n)
	}
}

func TestPerIPThrottle(t *testing.T) {
	l, mr := newTestLimiter(t, Config{Prefix: "p", MaxFailures: 2, Window: time.Minute, PerIP: true})
	ctx := context.Background()

	_ = l.Fail(ctx, "a", "10.0.0.1")
	if err := l.Fail(ctx, "b", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP budget exhausted, got %v", err)
	}
	if err := l.Check(ctx, "c", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected fresh client on throttled IP to be limited, got %v", err)
	}
	if err := l.Check(ctx, "c", "10.0.0.2"); err != nil {
		t.Fatalf("expected other IP to pass, got %v", err)
	}
	if !mr.Exists("p:ip:10.0.0.1") || !mr.Exists("p:client:a") {
		t.Fatalf("unexpected key layout: %v", mr.Keys())
	}
}

func TestRedisOutage(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxFailures: 1, Window: time.Minute})
	mr.SetError("ERR store down")

	if err := l.Check(context.Background(), "cli", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := l.Fail(context.Background(), "cli", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
