package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/noncestore"
	"github.com/MrEthical07/goToken/oauth"
)

type loadtestOptions struct {
	tokens      int
	concurrency int
	redisAddr   string
	prefix      string
}

func newLoadtestCmd(c *cli) *cobra.Command {
	var opts loadtestOptions

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Issue, redeem and replay refresh tokens against a Redis nonce store",
		Long: "Issue refresh tokens with HMAC-SHA256 and AES-256-GCM, redeem each once and then replay each once. " +
			"Uses --redis-addr, then REDIS_ADDR, then an in-process miniredis.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.tokens <= 0 || opts.concurrency <= 0 {
				return errors.New("tokens and concurrency must be > 0")
			}
			if opts.redisAddr == "" {
				opts.redisAddr = c.v.GetString("redis-addr")
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), c, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.tokens, "tokens", 100000, "number of tokens per phase")
	f.IntVar(&opts.concurrency, "concurrency", 256, "number of concurrent workers")
	f.StringVar(&opts.prefix, "prefix", "gtn-load", "nonce key prefix")
	return cmd
}

func runLoadtest(ctx context.Context, out io.Writer, c *cli, opts loadtestOptions) error {
	addr := opts.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start miniredis: %w", err)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}
	defer cleanup()

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		PoolSize: opts.concurrency,
	})
	defer client.Close()

	store, err := noncestore.NewRedis(client, opts.prefix, time.Hour)
	if err != nil {
		return err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return err
	}
	logger := c.logger
	codec, err := goToken.NewCodec[oauth.RefreshToken](goToken.Config{
		Signing:     goToken.SymmetricSigning(secret, 0),
		Encryption:  goToken.SymmetricEncryption(secret),
		MaxAge:      30 * time.Minute,
		ReplayGuard: store,
		Logger:      &logger,
		Metrics:     goToken.MetricsConfig{Enabled: true, EnableLatencyHistograms: true},
	})
	if err != nil {
		return err
	}
	defer codec.Close()

	tokens := make([]string, opts.tokens)
	issueStats := runPhase(opts.tokens, opts.concurrency, func(i int) bool {
		tok, err := codec.Serialize(ctx, &oauth.RefreshToken{
			ClientID:   "loadtest",
			Subject:    fmt.Sprintf("user-%d", i),
			Scopes:     []string{"offline_access"},
			Generation: 1,
		})
		tokens[i] = tok
		return err == nil
	})

	redeemStats := runPhase(opts.tokens, opts.concurrency, func(i int) bool {
		_, err := codec.Deserialize(ctx, tokens[i])
		return err == nil
	})

	replayStats := runPhase(opts.tokens, opts.concurrency, func(i int) bool {
		_, err := codec.Deserialize(ctx, tokens[i])
		return errors.Is(err, goToken.ErrReplay)
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "issue", issueStats)
	printStats(out, "redeem", redeemStats)
	printStats(out, "replay", replayStats)

	snap := codec.MetricsSnapshot()
	fmt.Fprintf(out, "issued=%d accepted=%d replays=%d store_errors=%d\n",
		snap.Counters[goToken.MetricTokenIssued],
		snap.Counters[goToken.MetricTokenAccepted],
		snap.Counters[goToken.MetricReplayDetected],
		snap.Counters[goToken.MetricReplayCheckUnavailable],
	)

	if redeemStats.failures > 0 || replayStats.failures > 0 {
		return fmt.Errorf("%d redeem and %d replay outcomes were wrong", redeemStats.failures, replayStats.failures)
	}
	return nil
}

// runPhase calls op for indexes [0, ops) across concurrency workers. op
// reports whether the outcome was the expected one.
func runPhase(ops, concurrency int, op func(i int) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				ok := op(i)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
