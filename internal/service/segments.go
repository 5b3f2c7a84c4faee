package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/config"
	"strava-dashboard/internal/schedule"
	"strava-dashboard/internal/strava"
)

// SegmentSource is the part of the Strava client the pipeline needs.
type SegmentSource interface {
	GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]strava.Activity, error)
	GetActivityWithEfforts(ctx context.Context, activityID int64) (*strava.DetailedActivity, error)
	GetSegmentLeaderboard(ctx context.Context, segmentID int64) (*strava.Leaderboard, error)
}

// KOMSchedule bounds and paces leaderboard lookups.
type KOMSchedule struct {
	// Limit is the number of segments, in encounter order, that get a lookup.
	Limit     int
	BatchSize int
	// RequestPause separates lookups within a batch.
	RequestPause time.Duration
	// BatchPause separates batches.
	BatchPause time.Duration
}

// NewKOMSchedule reads the schedule from configuration.
func NewKOMSchedule(cfg config.SegmentsConfig) KOMSchedule {
	return KOMSchedule{
		Limit:        cfg.KOMLimit,
		BatchSize:    cfg.KOMBatchSize,
		RequestPause: cfg.KOMRequestPause,
		BatchPause:   cfg.KOMBatchPause,
	}
}

// pauseBefore returns the wait before the i-th lookup (0-based).
func (k KOMSchedule) pauseBefore(i int) time.Duration {
	if i == 0 {
		return 0
	}
	if k.BatchSize > 0 && i%k.BatchSize == 0 {
		return k.BatchPause
	}
	return k.RequestPause
}

// SkipKind says which stage dropped an item.
type SkipKind string

const (
	SkipActivity SkipKind = "activity"
	SkipSegment  SkipKind = "segment"
)

// Skipped is one activity detail or leaderboard that could not be fetched.
type Skipped struct {
	Kind SkipKind
	ID   int64
	Name string
	Err  error
}

// SegmentReport is the result of one aggregation run.
type SegmentReport struct {
	// Segments are in first-encounter order.
	Segments            []*analysis.SegmentStat
	ActivitiesFetched   int
	ActivitiesProcessed int
	KOMLookups          int
	Skipped             []Skipped
}

// SkippedActivities counts activities whose details could not be fetched.
func (r *SegmentReport) SkippedActivities() int {
	return r.countSkipped(SkipActivity)
}

// SkippedSegments counts failed leaderboard lookups.
func (r *SegmentReport) SkippedSegments() int {
	return r.countSkipped(SkipSegment)
}

func (r *SegmentReport) countSkipped(kind SkipKind) int {
	n := 0
	for _, s := range r.Skipped {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// SegmentProgress reports progress during aggregation
type SegmentProgress struct {
	Phase     string // "activities", "details", "koms"
	Total     int
	Completed int
	Current   string
}

// SegmentService builds per-segment statistics from an athlete's recent activities.
type SegmentService struct {
	source   SegmentSource
	clock    schedule.Clock
	schedule KOMSchedule
	logger   zerolog.Logger
}

// NewSegmentService creates the pipeline. A nil clock means wall time.
func NewSegmentService(source SegmentSource, clock schedule.Clock, sched KOMSchedule, logger zerolog.Logger) *SegmentService {
	if clock == nil {
		clock = schedule.RealClock{}
	}
	return &SegmentService{source: source, clock: clock, schedule: sched, logger: logger}
}

// Aggregate fetches one page of activities, merges every segment effort in
// them, then looks up KOM times for the first segments seen. Per-item failures
// are recorded in the report; losing the login or cancellation ends the run.
// progress, if non-nil, is closed on return.
func (s *SegmentService) Aggregate(ctx context.Context, page, perPage int, progress chan<- SegmentProgress) (*SegmentReport, error) {
	if progress != nil {
		defer close(progress)
	}

	report, err := s.aggregate(ctx, page, perPage, progress)
	switch {
	case err != nil:
		segmentRuns.WithLabelValues("failed").Inc()
	case len(report.Skipped) > 0:
		segmentRuns.WithLabelValues("partial").Inc()
	default:
		segmentRuns.WithLabelValues("complete").Inc()
	}
	return report, err
}

func (s *SegmentService) aggregate(ctx context.Context, page, perPage int, progress chan<- SegmentProgress) (*SegmentReport, error) {
	report := &SegmentReport{}
	send(ctx, progress, SegmentProgress{Phase: "activities"})

	activities, err := s.source.GetActivities(ctx, time.Time{}, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("fetching activities page %d: %w", page, err)
	}
	report.ActivitiesFetched = len(activities)

	segments := analysis.NewSegmentMap()
	for i, a := range activities {
		send(ctx, progress, SegmentProgress{Phase: "details", Total: len(activities), Completed: i, Current: a.Name})

		if a.ID == 0 {
			continue
		}
		detail, err := s.source.GetActivityWithEfforts(ctx, a.ID)
		if err != nil {
			if fatal(ctx, err) {
				return nil, fmt.Errorf("fetching activity %d: %w", a.ID, err)
			}
			s.skip(report, Skipped{Kind: SkipActivity, ID: a.ID, Name: a.Name, Err: err})
			continue
		}

		// Efforts take the summary activity type.
		detail.Type = a.Type
		segments.MergeActivity(detail)
		report.ActivitiesProcessed++
	}

	if err := s.lookupKOMs(ctx, segments, report, progress); err != nil {
		return nil, err
	}

	report.Segments = segments.Stats()
	s.logger.Info().
		Int("activities", report.ActivitiesProcessed).
		Int("segments", len(report.Segments)).
		Int("kom_lookups", report.KOMLookups).
		Int("skipped", len(report.Skipped)).
		Msg("segment aggregation finished")
	return report, nil
}

func (s *SegmentService) lookupKOMs(ctx context.Context, segments *analysis.SegmentMap, report *SegmentReport, progress chan<- SegmentProgress) error {
	ids := segments.IDs()
	if len(ids) > s.schedule.Limit {
		ids = ids[:s.schedule.Limit]
	}

	for i, id := range ids {
		if d := s.schedule.pauseBefore(i); d > 0 {
			if err := s.clock.Sleep(ctx, d); err != nil {
				return err
			}
		}

		stat, _ := segments.Get(id)
		send(ctx, progress, SegmentProgress{Phase: "koms", Total: len(ids), Completed: i, Current: stat.SegmentName})

		lb, err := s.source.GetSegmentLeaderboard(ctx, id)
		report.KOMLookups++
		komLookups.Inc()
		if err != nil {
			if fatal(ctx, err) {
				return fmt.Errorf("fetching leaderboard for segment %d: %w", id, err)
			}
			s.skip(report, Skipped{Kind: SkipSegment, ID: id, Name: stat.SegmentName, Err: err})
			continue
		}
		if len(lb.Entries) > 0 {
			segments.SetKOM(id, lb.Entries[0].ElapsedTime)
		}
	}
	return nil
}

func (s *SegmentService) skip(report *SegmentReport, sk Skipped) {
	report.Skipped = append(report.Skipped, sk)
	segmentSkips.WithLabelValues(string(sk.Kind)).Inc()
	s.logger.Warn().Err(sk.Err).Str("kind", string(sk.Kind)).Int64("id", sk.ID).Msg("skipping item")
}

// fatal reports whether err should end the run: the credentials are gone or
// the caller gave up. A 401 on one item after a successful refresh is only
// that item's failure.
func fatal(ctx context.Context, err error) bool {
	return strava.IsLoggedOut(err) || ctx.Err() != nil
}

// send delivers p unless ctx is done first.
func send[T any](ctx context.Context, ch chan<- T, p T) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	case <-ctx.Done():
	}
}
