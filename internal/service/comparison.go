package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/strava"
)

// ErrNoVelocity is returned for activities recorded without speed data.
var ErrNoVelocity = errors.New("activity has no velocity stream")

// StreamSource fetches activity streams.
type StreamSource interface {
	GetActivityStreams(ctx context.Context, activityID int64, keys ...string) (*strava.Streams, error)
}

// ComparisonService compares the speed profiles of two activities.
type ComparisonService struct {
	source StreamSource
	logger zerolog.Logger
}

// NewComparisonService creates a comparison service.
func NewComparisonService(source StreamSource, logger zerolog.Logger) *ComparisonService {
	return &ComparisonService{source: source, logger: logger}
}

// Compare fetches both activities' time and velocity streams concurrently and
// samples them every five minutes.
func (s *ComparisonService) Compare(ctx context.Context, first, second int64) (*analysis.SpeedComparison, error) {
	var samples [2][]analysis.SpeedPoint

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range []int64{first, second} {
		g.Go(func() error {
			streams, err := s.source.GetActivityStreams(gctx, id, strava.DefaultStreamKeys...)
			if err != nil {
				return fmt.Errorf("fetching streams for activity %d: %w", id, err)
			}
			if !streams.HasVelocity() {
				return fmt.Errorf("activity %d: %w", id, ErrNoVelocity)
			}
			samples[i] = analysis.SampleSpeed(streams.Time.Data, streams.VelocitySmooth.Data, analysis.ComparisonInterval)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := analysis.CompareSpeeds(samples[0], samples[1])
	s.logger.Debug().Int64("first", first).Int64("second", second).Int("points", len(c.Minutes)).Msg("speed comparison built")
	return &c, nil
}
