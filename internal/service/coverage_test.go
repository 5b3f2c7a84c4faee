package service

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-dashboard/internal/strava"
)

type fakeLister struct {
	activities []strava.Activity
	limit      int
}

func (f *fakeLister) GetAllActivities(ctx context.Context, after time.Time, limit int, onProgress func(int)) ([]strava.Activity, error) {
	f.limit = limit
	if onProgress != nil {
		onProgress(len(f.activities))
	}
	return f.activities, nil
}

func TestCoverage_Analyze(t *testing.T) {
	src := &fakeLister{activities: []strava.Activity{
		// (38.5,-120.2) -> (40.7,-120.95) -> (43.252,-126.453)
		{ID: 1, Name: "Long", Map: strava.ActivityMap{SummaryPolyline: "_p~iF~ps|U_ulLnnqC_mqNvxq`@"}},
		{ID: 2, Name: "Treadmill"},
		{ID: 3, Name: "Broken", Map: strava.ActivityMap{SummaryPolyline: "_p~iF~ps|U_ulL"}},
	}}

	var seen int
	report, err := NewCoverageService(src, zerolog.Nop()).Analyze(context.Background(), CoverageRequest{
		Lat: 38.5, Lng: -120.2, RadiusMiles: 1,
	}, func(n int) { seen = n })
	require.NoError(t, err)

	assert.Equal(t, DefaultCoverageActivities, src.limit)
	assert.Equal(t, 3, seen)
	assert.Equal(t, 3, report.ActivitiesScanned)
	assert.Equal(t, 2, report.WithoutRoute)
	require.Len(t, report.Routes, 1)
	assert.Equal(t, 1, report.Result.RoutesInArea)
	assert.Greater(t, report.Result.VisitedCells, 0)
	assert.Greater(t, report.Result.TotalCells, report.Result.VisitedCells)

	data, err := report.GeoJSON()
	require.NoError(t, err)
	var fc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
}

func TestCoverageRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  CoverageRequest
		ok   bool
	}{
		{"valid", CoverageRequest{Lat: 43, Lng: -89, RadiusMiles: 5, MaxActivities: 50}, true},
		{"latitude out of range", CoverageRequest{Lat: 95, Lng: 0, RadiusMiles: 5}, false},
		{"zero radius", CoverageRequest{Lat: 43, Lng: -89}, false},
		{"radius too large", CoverageRequest{Lat: 43, Lng: -89, RadiusMiles: 25}, false},
		{"too many activities", CoverageRequest{Lat: 43, Lng: -89, RadiusMiles: 5, MaxActivities: 5000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
