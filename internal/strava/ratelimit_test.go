package strava

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-dashboard/internal/schedule"
)

var epoch = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func TestRateLimiter_MinInterval(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	rl := NewRateLimiter(clock)

	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))

	assert.Equal(t, []time.Duration{150 * time.Millisecond}, clock.Sleeps())
	short, daily := rl.Usage()
	assert.Equal(t, 2, short)
	assert.Equal(t, 2, daily)
}

func TestRateLimiter_WaitsForShortWindow(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	rl := NewRateLimiter(clock)

	h := http.Header{}
	h.Set("X-RateLimit-Usage", "100,200")
	rl.UpdateFromHeaders(h)

	clock.Advance(5 * time.Minute)
	require.NoError(t, rl.Wait(context.Background()))

	assert.Equal(t, []time.Duration{10 * time.Minute}, clock.Sleeps())
	short, daily := rl.Status()
	assert.Equal(t, 99, short)
	assert.Equal(t, 799, daily)
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	clock := schedule.NewFakeClock(epoch)
	rl := NewRateLimiter(clock)

	h := http.Header{}
	h.Set("X-RateLimit-Usage", "100,200")
	rl.UpdateFromHeaders(h)

	clock.Advance(16 * time.Minute)
	require.NoError(t, rl.Wait(context.Background()))

	assert.Empty(t, clock.Sleeps())
	short, _ := rl.Usage()
	assert.Equal(t, 1, short)
}

func TestRateLimiter_UpdateFromHeaders(t *testing.T) {
	rl := NewRateLimiter(schedule.NewFakeClock(epoch))

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "200, 2000")
	h.Set("X-RateLimit-Usage", "34,512")
	rl.UpdateFromHeaders(h)

	short, daily := rl.Status()
	assert.Equal(t, 166, short)
	assert.Equal(t, 1488, daily)

	bad := http.Header{}
	bad.Set("X-RateLimit-Usage", "garbage")
	rl.UpdateFromHeaders(bad)
	short, daily = rl.Usage()
	assert.Equal(t, 34, short)
	assert.Equal(t, 512, daily)
}

func TestRateLimiter_CancelledWait(t *testing.T) {
	rl := NewRateLimiter(schedule.NewFakeClock(epoch))
	h := http.Header{}
	h.Set("X-RateLimit-Usage", "100,0")
	rl.UpdateFromHeaders(h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
}

// gateClock parks every Sleep until the test releases it and only moves
// time when told to, so concurrent waiters can be interleaved by hand.
type gateClock struct {
	mu      sync.Mutex
	now     time.Time
	entered chan time.Duration
	release chan struct{}
}

func (c *gateClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *gateClock) Sleep(ctx context.Context, d time.Duration) error {
	c.entered <- d
	select {
	case <-c.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *gateClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *gateClock) nextSleep(t *testing.T) time.Duration {
	t.Helper()
	select {
	case d := <-c.entered:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("expected a waiter to sleep")
		return 0
	}
}

func TestRateLimiter_ConcurrentWaitersKeepSpacing(t *testing.T) {
	clock := &gateClock{
		now:     epoch,
		entered: make(chan time.Duration, 4),
		release: make(chan struct{}),
	}
	rl := NewRateLimiter(clock)
	require.NoError(t, rl.Wait(context.Background()))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- rl.Wait(context.Background())
		}()
	}

	// Both see the same previous request and sleep for the full spacing.
	assert.Equal(t, 150*time.Millisecond, clock.nextSleep(t))
	assert.Equal(t, 150*time.Millisecond, clock.nextSleep(t))

	clock.advance(150 * time.Millisecond)
	clock.release <- struct{}{}
	clock.release <- struct{}{}

	// Whichever wakes second finds the slot taken and waits again.
	assert.Equal(t, 150*time.Millisecond, clock.nextSleep(t))
	clock.advance(150 * time.Millisecond)
	clock.release <- struct{}{}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	short, _ := rl.Usage()
	assert.Equal(t, 3, short)
	assert.Empty(t, clock.entered)
}
