package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-dashboard/internal/strava"
)

func act(id int64, typ string, meters float64, local string, elapsed int) strava.Activity {
	t, err := time.Parse(time.RFC3339, local)
	if err != nil {
		panic(err)
	}
	return strava.Activity{
		ID: id, Type: typ, Distance: meters, StartDateLocal: t,
		ElapsedTime: elapsed, MovingTime: elapsed, TotalElevationGain: 10,
	}
}

func TestMoonProgress(t *testing.T) {
	assert.InDelta(t, 100, MoonProgress(MoonMiles*MetersPerMile), 1e-9)
	assert.InDelta(t, 0.5, MoonProgress(1194.5*MetersPerMile), 1e-9)
}

func TestProgress_CapsAndCounts(t *testing.T) {
	p := Progress(200 * MetersPerMile)
	require.Len(t, p, len(Milestones))

	madison := p[2]
	assert.Equal(t, "Milwaukee to Madison", madison.Name)
	assert.Equal(t, 100.0, madison.Percent)
	assert.Equal(t, 2, madison.Completions)

	us := p[1]
	assert.InDelta(t, 200.0/2800*100, us.Percent, 1e-9)
	assert.Zero(t, us.Completions)
}

func TestTopByDistance(t *testing.T) {
	acts := []strava.Activity{
		act(1, "Ride", 10, "2024-01-01T00:00:00Z", 60),
		act(2, "Run", 50, "2024-01-01T00:00:00Z", 60),
		act(3, "Ride", 30, "2024-01-01T00:00:00Z", 60),
		act(4, "Ride", 20, "2024-01-01T00:00:00Z", 60),
		act(5, "Ride", 30, "2024-01-01T00:00:00Z", 60),
	}

	top := TopByDistance(acts, "Ride", 3)
	require.Len(t, top, 3)
	assert.Equal(t, []int64{3, 5, 4}, []int64{top[0].ID, top[1].ID, top[2].ID})
	assert.Empty(t, TopByDistance(acts, "Swim", 3))
}

func TestDailyMinutes(t *testing.T) {
	today := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	acts := []strava.Activity{
		act(1, "Run", 5000, "2024-06-10T07:00:00Z", 1800),
		act(2, "Run", 5000, "2024-06-10T18:00:00Z", 600),
		act(3, "Run", 5000, "2024-06-08T07:00:00Z", 1200),
		act(4, "Ride", 5000, "2024-06-09T07:00:00Z", 3600),
		act(5, "Run", 5000, "2024-01-01T07:00:00Z", 3600),
	}

	pts := DailyMinutes(acts, "Run", 3, today)
	require.Len(t, pts, 3)
	assert.Equal(t, time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC), pts[0].Date)
	assert.Equal(t, []float64{20, 0, 40}, []float64{pts[0].Minutes, pts[1].Minutes, pts[2].Minutes})
}

func TestWeeklyTotals(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	acts := []strava.Activity{
		act(1, "Run", 5000, "2024-06-10T07:00:00Z", 1500), // Monday this week
		act(2, "Ride", 20000, "2024-06-12T07:00:00Z", 3600),
		act(3, "Run", 8000, "2024-06-09T07:00:00Z", 2400), // Sunday last week
		act(4, "Run", 8000, "2024-04-01T07:00:00Z", 2400), // too old
	}

	weeks := WeeklyTotals(acts, 2, now)
	require.Len(t, weeks, 2)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), weeks[0].WeekStart)
	assert.Equal(t, 1, weeks[0].Count)
	assert.Equal(t, 8000.0, weeks[0].Distance)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), weeks[1].WeekStart)
	assert.Equal(t, 2, weeks[1].Count)
	assert.Equal(t, 25000.0, weeks[1].Distance)
	assert.Equal(t, 5100, weeks[1].MovingTime)
}
