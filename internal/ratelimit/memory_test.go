package ratelimit_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isometry/storefront-integrity/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreFixedWindow(t *testing.T) {
	clock := newFakeClock()
	store := ratelimit.NewMemoryStore(ratelimit.WithClock(clock.Now))
	ctx := context.Background()
	window := 1000 * time.Millisecond

	testCases := []struct {
		Name              string
		Advance           time.Duration
		ExpectedAllowed   bool
		ExpectedRemaining int
	}{
		{Name: "first", ExpectedAllowed: true, ExpectedRemaining: 2},
		{Name: "second", Advance: 100 * time.Millisecond, ExpectedAllowed: true, ExpectedRemaining: 1},
		{Name: "third", Advance: 100 * time.Millisecond, ExpectedAllowed: true, ExpectedRemaining: 0},
		{Name: "fourth_denied", Advance: 100 * time.Millisecond, ExpectedAllowed: false, ExpectedRemaining: 0},
		{Name: "fifth_after_window", Advance: window, ExpectedAllowed: true, ExpectedRemaining: 2},
	}

	for _, tc := range testCases {
		clock.Advance(tc.Advance)
		d, err := store.Check(ctx, "public:10.0.0.1", 3, window)
		require.NoError(t, err, tc.Name)
		assert.Equal(t, tc.ExpectedAllowed, d.Allowed, tc.Name)
		assert.Equal(t, tc.ExpectedRemaining, d.Remaining, tc.Name)
		assert.Equal(t, 3, d.Limit, tc.Name)
	}
}

func TestMemoryStoreResetAt(t *testing.T) {
	clock := newFakeClock()
	store := ratelimit.NewMemoryStore(ratelimit.WithClock(clock.Now))
	start := clock.Now()

	d, err := store.Check(context.Background(), "k", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), d.ResetAt)

	clock.Advance(20 * time.Second)
	d, err = store.Check(context.Background(), "k", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, start.Add(time.Minute), d.ResetAt, "window is fixed, not sliding")
	assert.Equal(t, 40, d.RetryAfter(clock.Now()))

	clock.Advance(40 * time.Second)
	d, err = store.Check(context.Background(), "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "resetAt reached opens a new window")
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := store.Check(ctx, "auth:1.1.1.1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := store.Check(ctx, "auth:1.1.1.1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = store.Check(ctx, "auth:2.2.2.2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = store.Check(ctx, "public:1.1.1.1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryStoreInvalidLimit(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	_, err := store.Check(context.Background(), "k", 0, time.Minute)
	assert.Error(t, err)
	_, err = store.Check(context.Background(), "k", 1, 0)
	assert.Error(t, err)
}

func TestMemoryStoreConcurrentChecksNeverOveradmit(t *testing.T) {
	store := ratelimit.NewMemoryStore(ratelimit.WithShards(4))
	ctx := context.Background()
	const (
		limit   = 25
		workers = 200
	)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := store.Check(ctx, "public:shared", limit, time.Minute)
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), allowed.Load())
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := newFakeClock()
	store := ratelimit.NewMemoryStore(ratelimit.WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := store.Check(ctx, fmt.Sprintf("public:%d", i), 5, time.Second)
		require.NoError(t, err)
	}
	_, err := store.Check(ctx, "auth:long", 5, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 11, store.Len())

	assert.Equal(t, 0, store.Sweep())

	clock.Advance(time.Second)
	assert.Equal(t, 10, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreRunSweepsUntilCancelled(t *testing.T) {
	clock := newFakeClock()
	store := ratelimit.NewMemoryStore(
		ratelimit.WithClock(clock.Now),
		ratelimit.WithSweepInterval(5*time.Millisecond))

	_, err := store.Check(context.Background(), "k", 1, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()

	clock.Advance(2 * time.Second)
	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
