package service

import "github.com/prometheus/client_golang/prometheus"

var (
	segmentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segments_aggregations_total",
			Help: "Segment aggregation runs by outcome",
		},
		[]string{"outcome"},
	)

	segmentSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segments_skipped_total",
			Help: "Items left out of a segment report",
		},
		[]string{"kind"},
	)

	komLookups = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "segments_kom_lookups_total",
			Help: "Leaderboard requests issued for KOM times",
		},
	)
)

func init() {
	prometheus.MustRegister(segmentRuns, segmentSkips, komLookups)
}
