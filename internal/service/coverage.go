package service

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/strava"
)

// ActivityLister pages through activities.
type ActivityLister interface {
	GetAllActivities(ctx context.Context, after time.Time, limit int, onProgress func(fetched int)) ([]strava.Activity, error)
}

// CoverageRequest describes the area to analyze.
type CoverageRequest struct {
	Lat, Lng      float64
	RadiusMiles   float64
	MaxActivities int
	CellMeters    float64
}

// Validate checks the request bounds.
func (r CoverageRequest) Validate() error {
	switch {
	case r.Lat < -90 || r.Lat > 90 || r.Lng < -180 || r.Lng > 180:
		return fmt.Errorf("coverage center %.5f,%.5f is not a coordinate", r.Lat, r.Lng)
	case r.RadiusMiles <= 0 || r.RadiusMiles > MaxCoverageRadiusMi:
		return fmt.Errorf("coverage radius must be between 0 and %d miles", MaxCoverageRadiusMi)
	case r.MaxActivities < 0 || r.MaxActivities > MaxCoverageActivities:
		return fmt.Errorf("max activities must be between 0 and %d", MaxCoverageActivities)
	}
	return nil
}

// CoverageReport is the analyzed area plus the routes that fed it.
type CoverageReport struct {
	Area              analysis.CoverageArea
	Result            analysis.CoverageResult
	Routes            []analysis.Route
	ActivitiesScanned int
	// WithoutRoute counts activities with no usable polyline (indoor, manual, malformed).
	WithoutRoute int
}

// GeoJSON renders the report as a FeatureCollection.
func (r *CoverageReport) GeoJSON() ([]byte, error) {
	return analysis.CoverageGeoJSON(r.Area, r.Result, r.Routes)
}

// CoverageService measures how much of an area the athlete has covered.
type CoverageService struct {
	source ActivityLister
	logger zerolog.Logger
}

// NewCoverageService creates a coverage service.
func NewCoverageService(source ActivityLister, logger zerolog.Logger) *CoverageService {
	return &CoverageService{source: source, logger: logger}
}

// Analyze decodes the summary polylines of the latest activities and grids
// the circle around the requested center.
func (s *CoverageService) Analyze(ctx context.Context, req CoverageRequest, onProgress func(fetched int)) (*CoverageReport, error) {
	if req.MaxActivities == 0 {
		req.MaxActivities = DefaultCoverageActivities
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	activities, err := s.source.GetAllActivities(ctx, time.Time{}, req.MaxActivities, onProgress)
	if err != nil {
		return nil, fmt.Errorf("fetching activities: %w", err)
	}

	report := &CoverageReport{
		Area: analysis.CoverageArea{
			Center:       orb.Point{req.Lng, req.Lat},
			RadiusMeters: req.RadiusMiles * analysis.MetersPerMile,
			CellMeters:   req.CellMeters,
		},
		ActivitiesScanned: len(activities),
	}
	if report.Area.CellMeters <= 0 {
		report.Area.CellMeters = analysis.DefaultCellMeters
	}

	for _, a := range activities {
		encoded := a.Map.BestPolyline()
		if encoded == "" {
			report.WithoutRoute++
			continue
		}
		line, err := analysis.DecodePolyline(encoded)
		if err != nil {
			s.logger.Warn().Err(err).Int64("activity_id", a.ID).Msg("skipping route")
			report.WithoutRoute++
			continue
		}
		report.Routes = append(report.Routes, analysis.Route{ActivityID: a.ID, Name: a.Name, Line: line})
	}

	report.Result, err = analysis.ComputeCoverage(report.Area, report.Routes)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("activities", report.ActivitiesScanned).
		Int("routes", len(report.Routes)).
		Float64("coverage_pct", report.Result.Percent()).
		Msg("coverage analyzed")
	return report, nil
}
