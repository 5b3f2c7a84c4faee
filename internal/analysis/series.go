package analysis

import (
	"math"
	"sort"
	"time"

	"strava-dashboard/internal/strava"
)

// Milestone is a reference distance to measure lifetime totals against.
type Milestone struct {
	Name  string
	Miles float64
}

// MoonMiles is the average Earth-Moon distance.
const MoonMiles = 238_900

// Milestones are the reference distances shown on the dashboard.
var Milestones = []Milestone{
	{Name: "To the Moon", Miles: MoonMiles},
	{Name: "Across the US", Miles: 2800},
	{Name: "Milwaukee to Madison", Miles: 79.2},
}

// MilestoneProgress is progress toward one milestone.
type MilestoneProgress struct {
	Milestone
	// Percent is capped at 100.
	Percent float64
	// Completions is how many whole times the distance has been covered.
	Completions int
}

// MoonProgress is the percent of the way to the Moon, uncapped.
func MoonProgress(meters float64) float64 {
	return meters / MetersPerMile / MoonMiles * 100
}

// Progress measures a lifetime distance against each milestone.
func Progress(meters float64) []MilestoneProgress {
	miles := meters / MetersPerMile
	out := make([]MilestoneProgress, len(Milestones))
	for i, m := range Milestones {
		out[i] = MilestoneProgress{
			Milestone:   m,
			Percent:     math.Min(miles/m.Miles*100, 100),
			Completions: int(miles / m.Miles),
		}
	}
	return out
}

// TopByDistance returns up to n activities of the given type, longest first.
func TopByDistance(activities []strava.Activity, activityType string, n int) []strava.Activity {
	var matched []strava.Activity
	for _, a := range activities {
		if a.Type == activityType {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Distance > matched[j].Distance
	})
	if len(matched) > n {
		matched = matched[:n]
	}
	return matched
}

// DailyPoint is the total elapsed time on one calendar day.
type DailyPoint struct {
	Date    time.Time
	Minutes float64
}

// DailyMinutes returns one point per day for the last days days ending on
// today, oldest first. Activities are bucketed by their local start date.
func DailyMinutes(activities []strava.Activity, activityType string, days int, today time.Time) []DailyPoint {
	if days <= 0 {
		return nil
	}
	end := dayOf(today)
	start := end.AddDate(0, 0, -(days - 1))

	out := make([]DailyPoint, days)
	index := make(map[time.Time]int, days)
	for i := range out {
		d := start.AddDate(0, 0, i)
		out[i].Date = d
		index[d] = i
	}

	for _, a := range activities {
		if a.Type != activityType {
			continue
		}
		if i, ok := index[dayOf(a.StartDateLocal)]; ok {
			out[i].Minutes += float64(a.ElapsedTime) / 60
		}
	}
	return out
}

// dayOf returns midnight of t's wall-clock date, in UTC so dates compare
// regardless of the location they came from.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekTotals sums one Monday-to-Sunday week.
type WeekTotals struct {
	WeekStart  time.Time
	Count      int
	Distance   float64 // meters
	MovingTime int     // seconds
	Elevation  float64 // meters
}

// WeeklyTotals returns the last weeks weeks ending with the week containing
// now, oldest first.
func WeeklyTotals(activities []strava.Activity, weeks int, now time.Time) []WeekTotals {
	if weeks <= 0 {
		return nil
	}
	current := weekStart(now)
	out := make([]WeekTotals, weeks)
	index := make(map[time.Time]int, weeks)
	for i := range out {
		ws := current.AddDate(0, 0, -7*(weeks-1-i))
		out[i].WeekStart = ws
		index[ws] = i
	}

	for _, a := range activities {
		i, ok := index[weekStart(a.StartDateLocal)]
		if !ok {
			continue
		}
		out[i].Count++
		out[i].Distance += a.Distance
		out[i].MovingTime += a.MovingTime
		out[i].Elevation += a.TotalElevationGain
	}
	return out
}

func weekStart(t time.Time) time.Time {
	d := dayOf(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}
