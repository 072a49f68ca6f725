package analysis

import (
	"time"

	"runcoach/internal/store"
)

// TrainingStats summarizes stored activities for the dashboard
type TrainingStats struct {
	TotalRuns          int     `json:"total_runs"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	AveragePaceSec     float64 `json:"average_pace_s_per_km"` // 0 when there are no runs with distance
	AveragePace        string  `json:"average_pace"`          // "M:SS/km" or "--:--"
	WeekDistanceKm     float64 `json:"week_distance_km"`
	WeeklyGoalKm       float64 `json:"weekly_goal_km"`
	WeeklyGoalProgress float64 `json:"weekly_goal_progress"` // 0.0 to 1.0
}

// ComputeTrainingStats aggregates activities into dashboard totals.
// Average pace is the mean of each run's pace, not total time over total distance.
func ComputeTrainingStats(activities []store.Activity, weeklyGoalKm float64, now time.Time) TrainingStats {
	stats := TrainingStats{
		TotalRuns:    len(activities),
		WeeklyGoalKm: weeklyGoalKm,
		AveragePace:  "--:--",
	}

	weekStart := WeekStart(now)
	var paceSum float64
	var paced int

	for _, a := range activities {
		km := a.Distance / MetersPerKm
		stats.TotalDistanceKm += km

		if km > 0 && a.MovingTime > 0 {
			paceSum += float64(a.MovingTime) / km
			paced++
		}

		start := a.StartDateLocal
		if start.IsZero() {
			start = a.StartDate
		}
		if !start.Before(weekStart) && start.Before(weekStart.AddDate(0, 0, 7)) {
			stats.WeekDistanceKm += km
		}
	}

	if paced > 0 {
		stats.AveragePaceSec = paceSum / float64(paced)
		stats.AveragePace = FormatPacePerKm(stats.AveragePaceSec)
	}

	if weeklyGoalKm > 0 {
		progress := stats.WeekDistanceKm / weeklyGoalKm
		if progress > 1 {
			progress = 1
		}
		stats.WeeklyGoalProgress = progress
	}

	return stats
}

// WeeklyDistances returns total km per week for the last n weeks, oldest first
func WeeklyDistances(activities []store.Activity, weeks int, now time.Time) []float64 {
	if weeks <= 0 {
		return nil
	}
	totals := make([]float64, weeks)
	current := WeekStart(now)
	first := current.AddDate(0, 0, -7*(weeks-1))

	for _, a := range activities {
		start := a.StartDateLocal
		if start.IsZero() {
			start = a.StartDate
		}
		if start.Before(first) {
			continue
		}
		idx := int(WeekStart(start).Sub(first).Hours()/24+0.5) / 7
		if idx >= 0 && idx < weeks {
			totals[idx] += a.Distance / MetersPerKm
		}
	}
	return totals
}

// WeekStart returns the Monday at midnight of the week containing t
func WeekStart(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	monday := t.AddDate(0, 0, -daysFromMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
}
