package strava

import "time"

// Activity is the summary form returned by list endpoints.
type Activity struct {
	ID                 int64       `json:"id"`
	Athlete            AthleteRef  `json:"athlete"`
	Name               string      `json:"name"`
	Type               string      `json:"type"`
	SportType          string      `json:"sport_type"`
	StartDate          time.Time   `json:"start_date"`
	StartDateLocal     time.Time   `json:"start_date_local"`
	Timezone           string      `json:"timezone"`
	Distance           float64     `json:"distance"`             // meters
	MovingTime         int         `json:"moving_time"`          // seconds
	ElapsedTime        int         `json:"elapsed_time"`         // seconds
	TotalElevationGain float64     `json:"total_elevation_gain"` // meters
	AverageSpeed       float64     `json:"average_speed"`        // m/s
	MaxSpeed           float64     `json:"max_speed"`            // m/s
	StartLatLng        []float64   `json:"start_latlng"`
	Map                ActivityMap `json:"map"`
}

// ActivityMap carries the encoded route of an activity.
type ActivityMap struct {
	ID              string `json:"id"`
	SummaryPolyline string `json:"summary_polyline"`
	Polyline        string `json:"polyline"`
}

// BestPolyline prefers the full-resolution polyline when present.
func (m ActivityMap) BestPolyline() string {
	if m.Polyline != "" {
		return m.Polyline
	}
	return m.SummaryPolyline
}

// DetailedActivity adds segment efforts, present when requested with
// include_all_efforts=true.
type DetailedActivity struct {
	Activity
	Description    string          `json:"description"`
	Calories       float64         `json:"calories"`
	SegmentEfforts []SegmentEffort `json:"segment_efforts"`
}

// SegmentEffort is one traversal of a segment within an activity.
type SegmentEffort struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	ElapsedTime    int            `json:"elapsed_time"` // seconds
	MovingTime     int            `json:"moving_time"`  // seconds
	StartDate      time.Time      `json:"start_date"`
	StartDateLocal time.Time      `json:"start_date_local"`
	Distance       float64        `json:"distance"`
	PRRank         *int           `json:"pr_rank"`
	Segment        SummarySegment `json:"segment"`
}

// SummarySegment is the segment definition embedded in an effort.
type SummarySegment struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	ActivityType  string  `json:"activity_type"`
	Distance      float64 `json:"distance"`      // meters
	AverageGrade  float64 `json:"average_grade"` // percent
	ElevationHigh float64 `json:"elevation_high"`
	ElevationLow  float64 `json:"elevation_low"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	Country       string  `json:"country"`
}

// Leaderboard is a page of a segment leaderboard.
type Leaderboard struct {
	EntryCount int                `json:"entry_count"`
	Entries    []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry is one ranked effort.
type LeaderboardEntry struct {
	AthleteName string    `json:"athlete_name"`
	ElapsedTime int       `json:"elapsed_time"`
	MovingTime  int       `json:"moving_time"`
	StartDate   time.Time `json:"start_date"`
	Rank        int       `json:"rank"`
}

// AthleteRef is the minimal athlete embedded in an activity.
type AthleteRef struct {
	ID int64 `json:"id"`
}

// Athlete is the authenticated athlete's profile.
type Athlete struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	Premium   bool      `json:"premium"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (a *Athlete) FullName() string {
	switch {
	case a.Firstname == "":
		return a.Lastname
	case a.Lastname == "":
		return a.Firstname
	}
	return a.Firstname + " " + a.Lastname
}

// AthleteStats are the rolled-up totals for an athlete.
type AthleteStats struct {
	BiggestRideDistance       float64       `json:"biggest_ride_distance"`
	BiggestClimbElevationGain float64       `json:"biggest_climb_elevation_gain"`
	RecentRideTotals          ActivityTotal `json:"recent_ride_totals"`
	RecentRunTotals           ActivityTotal `json:"recent_run_totals"`
	RecentSwimTotals          ActivityTotal `json:"recent_swim_totals"`
	YTDRideTotals             ActivityTotal `json:"ytd_ride_totals"`
	YTDRunTotals              ActivityTotal `json:"ytd_run_totals"`
	YTDSwimTotals             ActivityTotal `json:"ytd_swim_totals"`
	AllRideTotals             ActivityTotal `json:"all_ride_totals"`
	AllRunTotals              ActivityTotal `json:"all_run_totals"`
	AllSwimTotals             ActivityTotal `json:"all_swim_totals"`
}

// ActivityTotal sums one sport over one period.
type ActivityTotal struct {
	Count            int     `json:"count"`
	Distance         float64 `json:"distance"`       // meters
	MovingTime       int     `json:"moving_time"`    // seconds
	ElapsedTime      int     `json:"elapsed_time"`   // seconds
	ElevationGain    float64 `json:"elevation_gain"` // meters
	AchievementCount int     `json:"achievement_count"`
}

// Streams is activity stream data requested with key_by_type=true.
type Streams struct {
	Time           *StreamData[int]        `json:"time"`
	LatLng         *StreamData[[2]float64] `json:"latlng"`
	Altitude       *StreamData[float64]    `json:"altitude"`
	VelocitySmooth *StreamData[float64]    `json:"velocity_smooth"`
	Distance       *StreamData[float64]    `json:"distance"`
}

// StreamData is a single stream type.
type StreamData[T any] struct {
	Data         []T    `json:"data"`
	SeriesType   string `json:"series_type"`
	OriginalSize int    `json:"original_size"`
	Resolution   string `json:"resolution"`
}

// Len returns the length of the time stream, or 0 if absent.
func (s *Streams) Len() int {
	if s == nil || s.Time == nil {
		return 0
	}
	return len(s.Time.Data)
}

// HasVelocity reports whether both time and velocity samples are present.
func (s *Streams) HasVelocity() bool {
	return s.Len() > 0 && s.VelocitySmooth != nil && len(s.VelocitySmooth.Data) > 0
}
