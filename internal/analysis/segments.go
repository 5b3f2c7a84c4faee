package analysis

import (
	"sort"
	"time"

	"strava-dashboard/internal/strava"
)

// DefaultActivityType is assumed when an activity reports no type.
const DefaultActivityType = "Ride"

// YearBest is the fastest effort on a segment within one calendar year.
type YearBest struct {
	BestTime int // seconds
	Date     time.Time
	// IsPR is the provider's PR flag on that best effort.
	IsPR bool
}

// Best is the fastest effort on a segment across all years.
type Best struct {
	Time int // seconds
	Date time.Time
}

// SegmentStat aggregates an athlete's efforts on one segment.
type SegmentStat struct {
	SegmentID       int64
	SegmentName     string
	SegmentDistance float64 // meters
	ActivityType    string
	Efforts         map[int]YearBest
	AllTimeBest     Best
	// KOMTime is the leaderboard's best elapsed time; nil when unknown.
	KOMTime *int
}

// Years returns the years with efforts, most recent first.
func (s *SegmentStat) Years() []int {
	years := make([]int, 0, len(s.Efforts))
	for y := range s.Efforts {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// GapToKOM returns how many seconds the all-time best is behind the KOM.
func (s *SegmentStat) GapToKOM() (int, bool) {
	if s.KOMTime == nil {
		return 0, false
	}
	return s.AllTimeBest.Time - *s.KOMTime, true
}

// EffortYear is the calendar year of the effort in the athlete's local time,
// falling back to the UTC start when the local date is missing.
func EffortYear(e strava.SegmentEffort) int {
	return effortDate(e).Year()
}

func effortDate(e strava.SegmentEffort) time.Time {
	if !e.StartDateLocal.IsZero() {
		return e.StartDateLocal
	}
	return e.StartDate
}

// SegmentMap holds SegmentStats keyed by segment ID and remembers the order
// in which segments were first seen.
type SegmentMap struct {
	order []int64
	byID  map[int64]*SegmentStat
}

// NewSegmentMap returns an empty map.
func NewSegmentMap() *SegmentMap {
	return &SegmentMap{byID: make(map[int64]*SegmentStat)}
}

// Merge folds one effort into the map. Within a year and across years only a
// strictly faster time replaces the current best, so ties keep the first seen.
// Efforts without a segment ID are ignored and reported as false.
func (m *SegmentMap) Merge(e strava.SegmentEffort, activityType string) bool {
	id := e.Segment.ID
	if id == 0 {
		return false
	}
	if activityType == "" {
		activityType = DefaultActivityType
	}

	year := EffortYear(e)
	date := effortDate(e)
	candidate := YearBest{BestTime: e.ElapsedTime, Date: date, IsPR: e.PRRank != nil}

	stat, ok := m.byID[id]
	if !ok {
		name := e.Segment.Name
		if name == "" {
			name = e.Name
		}
		stat = &SegmentStat{
			SegmentID:       id,
			SegmentName:     name,
			SegmentDistance: e.Segment.Distance,
			ActivityType:    activityType,
			Efforts:         map[int]YearBest{year: candidate},
			AllTimeBest:     Best{Time: e.ElapsedTime, Date: date},
		}
		m.byID[id] = stat
		m.order = append(m.order, id)
		return true
	}

	if cur, ok := stat.Efforts[year]; !ok || e.ElapsedTime < cur.BestTime {
		stat.Efforts[year] = candidate
	}
	if e.ElapsedTime < stat.AllTimeBest.Time {
		stat.AllTimeBest = Best{Time: e.ElapsedTime, Date: date}
	}
	return true
}

// MergeActivity folds every effort of an activity into the map.
func (m *SegmentMap) MergeActivity(a *strava.DetailedActivity) {
	for _, e := range a.SegmentEfforts {
		m.Merge(e, a.Type)
	}
}

// Get returns the stat for a segment.
func (m *SegmentMap) Get(id int64) (*SegmentStat, bool) {
	s, ok := m.byID[id]
	return s, ok
}

// Len returns the number of distinct segments.
func (m *SegmentMap) Len() int {
	return len(m.order)
}

// IDs returns segment IDs in first-encounter order.
func (m *SegmentMap) IDs() []int64 {
	return append([]int64(nil), m.order...)
}

// Stats returns the stats in first-encounter order.
func (m *SegmentMap) Stats() []*SegmentStat {
	out := make([]*SegmentStat, len(m.order))
	for i, id := range m.order {
		out[i] = m.byID[id]
	}
	return out
}

// SetKOM records the course record for a segment already in the map.
func (m *SegmentMap) SetKOM(id int64, elapsed int) {
	if s, ok := m.byID[id]; ok {
		t := elapsed
		s.KOMTime = &t
	}
}
