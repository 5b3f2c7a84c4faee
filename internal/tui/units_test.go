package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"strava-dashboard/internal/config"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "-"},
		{-5, "-"},
		{9, "0:09"},
		{125, "2:05"},
		{3725, "62:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestFormatOptionalTime(t *testing.T) {
	assert.Equal(t, "-", FormatOptionalTime(nil))
	v := 61
	assert.Equal(t, "1:01", FormatOptionalTime(&v))
}

func TestFormatDistance(t *testing.T) {
	miles := NewUnits(config.DisplayConfig{DistanceUnit: "mi"})
	km := NewUnits(config.DisplayConfig{DistanceUnit: "km"})

	tests := []struct {
		name   string
		units  Units
		meters float64
		want   string
	}{
		{"miles", miles, 16093.4, "10.0 mi"},
		{"feet below a tenth of a mile", miles, 100, "328 ft"},
		{"just over a tenth of a mile", miles, 200, "0.1 mi"},
		{"kilometers", km, 2500, "2.5 km"},
		{"short kilometers", km, 100, "0.1 km"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.units.FormatDistance(tt.meters))
		})
	}
}

func TestFormatTotal(t *testing.T) {
	miles := NewUnits(config.DisplayConfig{DistanceUnit: "mi"})
	assert.Equal(t, "12,345 mi", miles.FormatTotal(12345.6*metersPerMile))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45m", formatDuration(45*60))
	assert.Equal(t, "1h 05m", formatDuration(3900))
}
