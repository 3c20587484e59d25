package noncestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIfAbsent(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	ok, err := m.StoreIfAbsent(ctx, "a", "n1", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.StoreIfAbsent(ctx, "a", "n1", time.Now())
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = m.StoreIfAbsent(ctx, "b", "n1", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryExpiresAndPrunes(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	m := NewMemoryWithClock(10*time.Second, clock)
	ctx := context.Background()

	for _, n := range []string{"n1", "n2", "n3"} {
		ok, err := m.StoreIfAbsent(ctx, "a", n, now)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 3, m.Len())

	now = now.Add(11 * time.Second)

	ok, err := m.StoreIfAbsent(ctx, "a", "n1", now)
	require.NoError(t, err)
	require.True(t, ok, "expired nonce is accepted again")
	require.Equal(t, 1, m.Len(), "expired entries pruned")
}

func TestMemoryHonorsCanceledContext(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.StoreIfAbsent(ctx, "a", "n", time.Now())
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryDefaultRetention(t *testing.T) {
	require.Equal(t, DefaultMemoryRetention, NewMemory(0).Retention())
}
