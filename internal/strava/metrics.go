package strava

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

var (
	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_fetch_total",
			Help: "Logical Strava API requests by terminal state",
		},
		[]string{"state"},
	)

	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_token_refresh_total",
			Help: "Token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	breakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strava_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	rateLimitRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strava_rate_limit_remaining",
			Help: "Requests left in each Strava rate limit window",
		},
		[]string{"window"},
	)
)

func init() {
	prometheus.MustRegister(fetchTotal, refreshTotal, breakerState, rateLimitRemaining)
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
