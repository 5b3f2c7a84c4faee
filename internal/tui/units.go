package tui

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"strava-dashboard/internal/config"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
	feetPerMeter  = 3.28084

	// Distances under this many miles are shown in feet.
	feetThresholdMiles = 0.1
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit.
// Short distances in miles mode are shown in feet.
func (u Units) FormatDistance(meters float64) string {
	if !u.IsMiles() {
		return fmt.Sprintf("%.1f km", meters/metersPerKm)
	}
	miles := meters / metersPerMile
	if miles < feetThresholdMiles {
		return fmt.Sprintf("%.0f ft", meters*feetPerMeter)
	}
	return fmt.Sprintf("%.1f mi", miles)
}

// FormatDistanceValue returns just the numeric distance value (no unit label)
func (u Units) FormatDistanceValue(meters float64) float64 {
	if u.IsMiles() {
		return meters / metersPerMile
	}
	return meters / metersPerKm
}

// FormatTotal formats a large distance with thousands separators, e.g. "12,345 mi".
func (u Units) FormatTotal(meters float64) string {
	return humanize.Comma(int64(u.FormatDistanceValue(meters))) + " " + u.DistanceLabel()
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.IsMiles() {
		return "mi"
	}
	return "km"
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit != "km"
}

// FormatTime renders seconds as m:ss; zero or negative means unknown.
func FormatTime(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatOptionalTime is FormatTime for values that may be missing.
func FormatOptionalTime(seconds *int) string {
	if seconds == nil {
		return "-"
	}
	return FormatTime(*seconds)
}

// formatDuration formats seconds as "1h 23m" or "45m".
func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
