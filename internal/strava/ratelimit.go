package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"strava-dashboard/internal/schedule"
)

// Strava rate limits:
// - 100 requests per 15 minutes
// - 1000 requests per day
const (
	shortWindow = 15 * time.Minute
	dailyWindow = 24 * time.Hour
)

// RateLimiter tracks both Strava windows locally and adopts the server's
// counters from response headers.
type RateLimiter struct {
	mu    sync.Mutex
	clock schedule.Clock

	shortLimit    int
	shortUsage    int
	shortResetsAt time.Time

	dailyLimit    int
	dailyUsage    int
	dailyResetsAt time.Time

	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a limiter with Strava's published defaults.
// A nil clock means wall time.
func NewRateLimiter(clock schedule.Clock) *RateLimiter {
	if clock == nil {
		clock = schedule.RealClock{}
	}
	now := clock.Now()
	return &RateLimiter{
		clock:         clock,
		shortLimit:    100,
		shortResetsAt: now.Add(shortWindow),
		dailyLimit:    1000,
		dailyResetsAt: nextDay(now),
		minInterval:   150 * time.Millisecond,
	}
}

func nextDay(t time.Time) time.Time {
	return t.Truncate(dailyWindow).Add(dailyWindow)
}

// Wait blocks until one more request fits within both windows and the
// minimum spacing since the previous request. State is re-read after every
// sleep since other callers may have taken the slot meanwhile.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		now := r.clock.Now()
		r.expire(now)
		d := r.delay(now)
		if d <= 0 {
			break
		}
		if err := r.sleepUnlocked(ctx, d); err != nil {
			return err
		}
	}

	r.shortUsage++
	r.dailyUsage++
	r.lastRequest = r.clock.Now()
	r.report()

	return nil
}

// delay is how long the next request must wait at now. Caller holds mu.
func (r *RateLimiter) delay(now time.Time) time.Duration {
	switch {
	case r.shortUsage >= r.shortLimit:
		return r.shortResetsAt.Sub(now)
	case r.dailyUsage >= r.dailyLimit:
		return r.dailyResetsAt.Sub(now)
	case !r.lastRequest.IsZero():
		return r.minInterval - now.Sub(r.lastRequest)
	}
	return 0
}

func (r *RateLimiter) expire(now time.Time) {
	if !now.Before(r.shortResetsAt) {
		r.shortUsage = 0
		r.shortResetsAt = now.Add(shortWindow)
	}
	if !now.Before(r.dailyResetsAt) {
		r.dailyUsage = 0
		r.dailyResetsAt = nextDay(now)
	}
}

// sleepUnlocked releases the lock for the duration of the sleep.
// The lock is held again on return, including on error.
func (r *RateLimiter) sleepUnlocked(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	r.mu.Unlock()
	err := r.clock.Sleep(ctx, d)
	r.mu.Lock()
	return err
}

// UpdateFromHeaders adopts the usage and limits Strava reports, e.g.
// X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512".
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.shortUsage = short
		r.dailyUsage = daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.shortLimit = short
		r.dailyLimit = daily
	}
	r.report()
}

func parsePair(v string) (int, int, bool) {
	parts := strings.Split(v, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

func (r *RateLimiter) report() {
	rateLimitRemaining.WithLabelValues("15m").Set(float64(r.shortLimit - r.shortUsage))
	rateLimitRemaining.WithLabelValues("daily").Set(float64(r.dailyLimit - r.dailyUsage))
}

// Status returns the remaining requests in each window.
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortLimit - r.shortUsage, r.dailyLimit - r.dailyUsage
}

// Usage returns current usage counts.
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortUsage, r.dailyUsage
}
