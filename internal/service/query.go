package service

import (
	"errors"
	"fmt"
	"time"

	"runcoach/internal/analysis"
	"runcoach/internal/store"
)

// QueryService provides read-only queries for the TUI and web API
type QueryService struct {
	store *store.DB
	now   func() time.Time
}

// NewQueryService creates a new query service
func NewQueryService(store *store.DB) *QueryService {
	return &QueryService{store: store, now: localNow}
}

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	Stats            analysis.TrainingStats `json:"stats"`
	RecentActivities []store.Activity       `json:"recent_activities"`
	Profile          *store.Profile         `json:"profile"`

	StravaConnected bool       `json:"strava_connected"`
	AthleteID       int64      `json:"athlete_id,omitempty"`
	ConnectedAt     *time.Time `json:"connected_at,omitempty"`
	LastSync        *time.Time `json:"last_sync,omitempty"`
	LastSyncError   string     `json:"last_sync_error,omitempty"`

	// For charts, oldest week first
	WeeklyKm     []float64 `json:"weekly_km"`
	WeeklyLabels []string  `json:"weekly_labels"`
}

// GetDashboardData fetches all data needed for the dashboard
func (q *QueryService) GetDashboardData() (*DashboardData, error) {
	profile, err := q.store.GetProfile()
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	activities, err := q.store.ListAllActivities()
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	now := q.now()
	data := &DashboardData{
		Profile:  profile,
		Stats:    analysis.ComputeTrainingStats(activities, profile.WeeklyGoalKm, now),
		WeeklyKm: analysis.WeeklyDistances(activities, ChartWeeks, now),
	}

	data.RecentActivities = activities
	if len(activities) > RecentActivitiesLimit {
		data.RecentActivities = activities[:RecentActivitiesLimit]
	}
	if data.RecentActivities == nil {
		data.RecentActivities = []store.Activity{}
	}

	currentWeek := analysis.WeekStart(now)
	data.WeeklyLabels = make([]string, ChartWeeks)
	for i := range data.WeeklyLabels {
		data.WeeklyLabels[i] = currentWeek.AddDate(0, 0, -7*(ChartWeeks-1-i)).Format("Jan 02")
	}

	auth, err := q.store.GetAuth()
	switch {
	case errors.Is(err, store.ErrNoAuth):
	case err != nil:
		return nil, fmt.Errorf("loading auth: %w", err)
	default:
		data.StravaConnected = true
		data.AthleteID = auth.AthleteID
		data.ConnectedAt = &auth.ConnectedAt
	}

	if t, _ := q.store.GetSyncTime(store.SyncKeyLastSync); !t.IsZero() {
		data.LastSync = &t
	}
	data.LastSyncError, _ = q.store.GetSyncState(store.SyncKeyLastError)

	return data, nil
}

// ListActivities returns a page of activities, newest first
func (q *QueryService) ListActivities(limit, offset int) ([]store.Activity, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	activities, err := q.store.ListActivities(limit, offset)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []store.Activity{}
	}
	return activities, nil
}

// CountActivities returns the number of stored runs
func (q *QueryService) CountActivities() (int, error) {
	return q.store.CountActivities()
}

// GetActivity returns a single activity
func (q *QueryService) GetActivity(id int64) (*store.Activity, error) {
	return q.store.GetActivity(id)
}

// localNow returns the wall-clock time labelled as UTC, matching how
// Strava's start_date_local values are stored
func localNow() time.Time {
	n := time.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, time.UTC)
}
