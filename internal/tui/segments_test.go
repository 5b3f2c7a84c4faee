package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/config"
	"strava-dashboard/internal/service"
	"strava-dashboard/internal/strava"
)

type fakeAggregator struct {
	report *service.SegmentReport
	err    error
}

func (f *fakeAggregator) Aggregate(ctx context.Context, page, perPage int, progress chan<- service.SegmentProgress) (*service.SegmentReport, error) {
	defer close(progress)
	progress <- service.SegmentProgress{Phase: "activities"}
	progress <- service.SegmentProgress{Phase: "details", Total: 2, Completed: 1, Current: "Morning Ride"}
	return f.report, f.err
}

func sampleReport() *service.SegmentReport {
	kom := 100
	return &service.SegmentReport{
		Segments: []*analysis.SegmentStat{{
			SegmentID:       1,
			SegmentName:     "Hill Climb",
			SegmentDistance: 1609.34,
			ActivityType:    "Ride",
			Efforts: map[int]analysis.YearBest{
				2024: {BestTime: 125, Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), IsPR: true},
				2023: {BestTime: 140},
			},
			AllTimeBest: analysis.Best{Time: 125},
			KOMTime:     &kom,
		}},
		ActivitiesFetched:   3,
		ActivitiesProcessed: 2,
		KOMLookups:          1,
		Skipped:             []service.Skipped{{Kind: service.SkipActivity, ID: 9, Err: errors.New("boom")}},
	}
}

func testUnits() Units {
	return NewUnits(config.DisplayConfig{DistanceUnit: "mi"})
}

// drain runs a segments model until its background run completes.
func drain(t *testing.T, m SegmentsModel) SegmentsModel {
	t.Helper()
	require.NotNil(t, m.run)
	for m.running {
		msg := waitForSegments(m.run)()
		next, _ := m.Update(msg)
		m = next.(SegmentsModel)
	}
	return m
}

func TestSegmentsRunRendersReport(t *testing.T) {
	m := NewSegmentsModel(context.Background(), &fakeAggregator{report: sampleReport()}, testUnits(), 15)
	m.start()
	assert.Contains(t, m.View(), "Loading segments")

	m = drain(t, m)
	require.NoError(t, m.err)

	view := m.View()
	assert.Contains(t, view, "1 segments from 2 of 3 activities")
	assert.Contains(t, view, "1 skipped: 1 activities, 0 segments")

	table := m.renderTable()
	assert.Contains(t, table, "Hill Climb")
	assert.Contains(t, table, "24 2:05* 23 2:20")
	assert.Contains(t, table, "1:40")
	assert.Contains(t, table, "+0:25")
}

func TestSegmentsAuthErrorShowsLoginHint(t *testing.T) {
	authErr := &strava.AuthError{Reason: strava.ReasonRefreshFailed}
	m := NewSegmentsModel(context.Background(), &fakeAggregator{err: authErr}, testUnits(), 15)
	m.start()

	require.NotNil(t, m.run)
	var cmd tea.Cmd
	for m.running {
		next, c := m.Update(waitForSegments(m.run)())
		m, cmd = next.(SegmentsModel), c
	}

	assert.Contains(t, m.View(), "strava-dashboard login")
	require.NotNil(t, cmd)
	assert.Equal(t, authErrorMsg{err: authErr}, cmd())
}

func TestSegmentsRefusedResourceKeepsLogin(t *testing.T) {
	refused := &strava.AuthError{Reason: strava.ReasonUnauthorized, Err: &strava.HTTPError{Status: 401, Body: "forbidden"}}
	m := NewSegmentsModel(context.Background(), &fakeAggregator{err: refused}, testUnits(), 15)
	m.start()

	var cmd tea.Cmd
	for m.running {
		next, c := m.Update(waitForSegments(m.run)())
		m, cmd = next.(SegmentsModel), c
	}

	assert.NotContains(t, m.View(), "strava-dashboard login")
	assert.Nil(t, cmd, "no logout hook for a single refused resource")
}

func TestSegmentsPlainErrorHasNoHint(t *testing.T) {
	m := NewSegmentsModel(context.Background(), &fakeAggregator{err: &strava.HTTPError{Status: 500, Body: "down"}}, testUnits(), 15)
	m.start()
	m = drain(t, m)

	assert.Contains(t, m.View(), "API error 500")
	assert.NotContains(t, m.View(), "strava-dashboard login")
}

func TestSegmentsIgnoresKeysWhileRunning(t *testing.T) {
	m := NewSegmentsModel(context.Background(), &fakeAggregator{report: sampleReport()}, testUnits(), 15)
	m.start()
	run := m.run

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	m = next.(SegmentsModel)
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.page)
	assert.Same(t, run, m.run)

	drain(t, m)
}

func TestKOMGap(t *testing.T) {
	s := &analysis.SegmentStat{AllTimeBest: analysis.Best{Time: 90}}
	assert.Equal(t, "-", komGap(s))

	kom := 90
	s.KOMTime = &kom
	assert.Equal(t, "KOM", komGap(s))

	kom = 60
	assert.Equal(t, "+0:30", komGap(s))
}
