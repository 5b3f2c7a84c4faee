package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClockRecordsSleeps(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	require.NoError(t, c.Sleep(context.Background(), 300*time.Millisecond))
	require.NoError(t, c.Sleep(context.Background(), 1500*time.Millisecond))

	assert.Equal(t, []time.Duration{300 * time.Millisecond, 1500 * time.Millisecond}, c.Sleeps())
	assert.Equal(t, start.Add(1800*time.Millisecond), c.Now())
}

func TestFakeClockHonorsCancelledContext(t *testing.T) {
	c := NewFakeClock(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.Sleeps())
}

func TestRealClockSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RealClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRealClockZeroSleep(t *testing.T) {
	assert.NoError(t, RealClock{}.Sleep(context.Background(), 0))
}
