package service

const (
	// Strava sync
	DefaultSyncPerPage = 10  // activities fetched by a quick sync
	FullSyncPerPage    = 100 // page size for a full history sync

	// Dashboard
	RecentActivitiesLimit = 8
	ChartWeeks            = 12

	// Training plan context
	PlanActivityDays  = 28
	PlanActivityLimit = 20
	MaxRunsPerWeek    = 14

	// Pagination limits
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// Sync phases reported on the progress channel
const (
	PhaseActivities = "activities"
	PhaseDone       = "done"
)
