package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/schedule"
	"strava-dashboard/internal/strava"
)

// DashboardSource is the part of the Strava client the dashboard reads.
type DashboardSource interface {
	GetAthlete(ctx context.Context) (*strava.Athlete, error)
	GetAthleteStats(ctx context.Context, athleteID int64) (*strava.AthleteStats, error)
	GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]strava.Activity, error)
}

// Dashboard is the overview screen's data.
type Dashboard struct {
	Athlete      *strava.Athlete
	Stats        *strava.AthleteStats
	MoonProgress float64
	Milestones   []analysis.MilestoneProgress
	// Top holds the longest recent activities per type in TopActivityTypes.
	Top       map[string][]strava.Activity
	DailyType string
	Daily     []analysis.DailyPoint
	Weekly    []analysis.WeekTotals
}

// DashboardService assembles the dashboard.
type DashboardService struct {
	source DashboardSource
	clock  schedule.Clock
	logger zerolog.Logger
}

// NewDashboardService creates a dashboard service. A nil clock means wall time.
func NewDashboardService(source DashboardSource, clock schedule.Clock, logger zerolog.Logger) *DashboardService {
	if clock == nil {
		clock = schedule.RealClock{}
	}
	return &DashboardService{source: source, clock: clock, logger: logger}
}

// Load fetches the athlete, their totals and the latest activities in
// parallel and derives the dashboard series. dailyType selects the activity
// type for the daily chart and defaults to Ride.
func (s *DashboardService) Load(ctx context.Context, dailyType string) (*Dashboard, error) {
	if dailyType == "" {
		dailyType = DefaultActivityType
	}

	var (
		athlete    *strava.Athlete
		stats      *strava.AthleteStats
		activities []strava.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.source.GetAthlete(gctx)
		if err != nil {
			return fmt.Errorf("fetching athlete: %w", err)
		}
		st, err := s.source.GetAthleteStats(gctx, a.ID)
		if err != nil {
			return fmt.Errorf("fetching athlete stats: %w", err)
		}
		athlete, stats = a, st
		return nil
	})
	g.Go(func() error {
		acts, err := s.source.GetActivities(gctx, time.Time{}, 1, DashboardPageSize)
		if err != nil {
			return fmt.Errorf("fetching activities: %w", err)
		}
		activities = acts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	d := &Dashboard{
		Athlete:      athlete,
		Stats:        stats,
		MoonProgress: analysis.MoonProgress(stats.AllRideTotals.Distance),
		Milestones:   analysis.Progress(stats.AllRideTotals.Distance),
		Top:          make(map[string][]strava.Activity, len(TopActivityTypes)),
		DailyType:    dailyType,
		Daily:        analysis.DailyMinutes(activities, dailyType, DailySeriesDays, now),
		Weekly:       analysis.WeeklyTotals(activities, ChartWeeks, now),
	}
	for _, t := range TopActivityTypes {
		d.Top[t] = analysis.TopByDistance(activities, t, TopActivitiesCount)
	}

	s.logger.Debug().Int64("athlete_id", athlete.ID).Int("activities", len(activities)).Msg("dashboard loaded")
	return d, nil
}
