package service

const (
	// Dashboard windows
	DailySeriesDays     = 60
	ChartWeeks          = 12
	TopActivitiesCount  = 3
	DashboardPageSize   = 100
	DefaultActivityType = "Ride"

	// Route coverage
	DefaultCoverageActivities = 100
	MaxCoverageActivities     = 1000
	DefaultCoverageRadiusMi   = 5
	MaxCoverageRadiusMi       = 20
)

// Dashboard top lists, in display order.
var TopActivityTypes = []string{"Ride", "Run", "Swim"}
