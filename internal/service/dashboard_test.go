package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/schedule"
	"strava-dashboard/internal/strava"
)

type fakeDashboardSource struct {
	athleteErr error
	statsID    int64
	activities []strava.Activity
}

func (f *fakeDashboardSource) GetAthlete(ctx context.Context) (*strava.Athlete, error) {
	if f.athleteErr != nil {
		return nil, f.athleteErr
	}
	return &strava.Athlete{ID: 77, Firstname: "Pat"}, nil
}

func (f *fakeDashboardSource) GetAthleteStats(ctx context.Context, id int64) (*strava.AthleteStats, error) {
	f.statsID = id
	return &strava.AthleteStats{
		AllRideTotals: strava.ActivityTotal{Count: 10, Distance: 2389 * analysis.MetersPerMile},
	}, nil
}

func (f *fakeDashboardSource) GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]strava.Activity, error) {
	return f.activities, nil
}

func TestDashboard_Load(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	src := &fakeDashboardSource{activities: []strava.Activity{
		{ID: 1, Type: "Ride", Distance: 40000, ElapsedTime: 5400, StartDateLocal: now.Add(-2 * time.Hour)},
		{ID: 2, Type: "Run", Distance: 8000, ElapsedTime: 2400, StartDateLocal: now.Add(-26 * time.Hour)},
		{ID: 3, Type: "Ride", Distance: 60000, ElapsedTime: 7200, StartDateLocal: now.Add(-50 * time.Hour)},
	}}

	svc := NewDashboardService(src, schedule.NewFakeClock(now), zerolog.Nop())
	d, err := svc.Load(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, int64(77), src.statsID)
	assert.InDelta(t, 1.0, d.MoonProgress, 1e-9)
	require.Len(t, d.Milestones, len(analysis.Milestones))

	require.Len(t, d.Top["Ride"], 2)
	assert.Equal(t, int64(3), d.Top["Ride"][0].ID)
	assert.Len(t, d.Top["Run"], 1)
	assert.Empty(t, d.Top["Swim"])

	assert.Equal(t, "Ride", d.DailyType)
	require.Len(t, d.Daily, DailySeriesDays)
	assert.Equal(t, 90.0, d.Daily[len(d.Daily)-1].Minutes)
	assert.Len(t, d.Weekly, ChartWeeks)
}

func TestDashboard_LoadFailsOnAthleteError(t *testing.T) {
	src := &fakeDashboardSource{athleteErr: &strava.AuthError{Reason: "no access token"}}
	_, err := NewDashboardService(src, nil, zerolog.Nop()).Load(context.Background(), "Run")

	require.Error(t, err)
	var ae *strava.AuthError
	assert.True(t, errors.As(err, &ae))
}
