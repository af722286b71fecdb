package attendance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCache(ttl time.Duration) (*StatsCache, *time.Time) {
	cache := NewStatsCache(ttl)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestCacheServesLiveEntry(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)
	calls := 0
	compute := func(context.Context) (any, error) {
		calls++
		return "payload", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cache.GetOrCompute(context.Background(), "stats:1", compute)
		require.NoError(t, err)
		require.Equal(t, "payload", v)
	}
	require.Equal(t, 1, calls)
}

func TestCacheRecomputesAfterTTL(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)
	calls := 0
	compute := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	_, err := cache.GetOrCompute(context.Background(), "stats:1", compute)
	require.NoError(t, err)

	*now = now.Add(5 * time.Minute)

	v, err := cache.GetOrCompute(context.Background(), "stats:1", compute)
	require.NoError(t, err)
	require.Equal(t, 2, v)
	require.Equal(t, 2, calls)
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)
	calls := 0
	boom := errors.New("query failed")
	compute := func(context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	_, err := cache.GetOrCompute(context.Background(), "stats:1", compute)
	require.ErrorIs(t, err, boom)

	v, err := cache.GetOrCompute(context.Background(), "stats:1", compute)
	require.NoError(t, err)
	require.Equal(t, "recovered", v)
}

func TestCacheBustForcesRecompute(t *testing.T) {
	cache, _ := newTestCache(time.Hour)
	calls := 0
	compute := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	_, _ = cache.GetOrCompute(context.Background(), "stats:1", compute)
	cache.Bust()
	v, err := cache.GetOrCompute(context.Background(), "stats:1", compute)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestCacheSweepDropsExpiredOnly(t *testing.T) {
	cache, now := newTestCache(5 * time.Minute)

	_, _ = cache.GetOrCompute(context.Background(), "old", func(context.Context) (any, error) { return 1, nil })
	*now = now.Add(4 * time.Minute)
	_, _ = cache.GetOrCompute(context.Background(), "fresh", func(context.Context) (any, error) { return 2, nil })
	*now = now.Add(time.Minute)

	require.Equal(t, 1, cache.Sweep())

	// The fresh entry survives the sweep.
	v, err := cache.GetOrCompute(context.Background(), "fresh", func(context.Context) (any, error) { return 3, nil })
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestCacheCollapsesConcurrentMisses(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)
	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]any, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.GetOrCompute(context.Background(), "stats:1", compute)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give every goroutine a chance to join the flight before the
	// single computation completes.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		require.Equal(t, "shared", v)
	}
}

func TestCacheHonorsContextCancellation(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		<-started
		cancel()
	}()

	_, err := cache.GetOrCompute(ctx, "stats:1", func(context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
