package analysis

import (
	"math"
	"testing"
	"time"

	"runcoach/internal/store"
)

func run(start time.Time, meters float64, seconds int) store.Activity {
	return store.Activity{
		Type:           "Run",
		StartDate:      start,
		StartDateLocal: start,
		Distance:       meters,
		MovingTime:     seconds,
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday", time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"wednesday", time.Date(2024, 1, 17, 7, 0, 0, 0, time.UTC), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"sunday belongs to previous monday", time.Date(2024, 1, 21, 23, 59, 0, 0, time.UTC), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"across month boundary", time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC), time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.in); !got.Equal(tt.want) {
				t.Errorf("WeekStart(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestComputeTrainingStats(t *testing.T) {
	now := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC) // Wednesday

	t.Run("no activities", func(t *testing.T) {
		stats := ComputeTrainingStats(nil, 20, now)
		if stats.TotalRuns != 0 || stats.TotalDistanceKm != 0 {
			t.Errorf("stats = %+v", stats)
		}
		if stats.AveragePace != "--:--" {
			t.Errorf("AveragePace = %q, want --:--", stats.AveragePace)
		}
		if stats.WeeklyGoalProgress != 0 {
			t.Errorf("WeeklyGoalProgress = %v, want 0", stats.WeeklyGoalProgress)
		}
	})

	t.Run("mean of per-run paces", func(t *testing.T) {
		activities := []store.Activity{
			run(now.AddDate(0, 0, -1), 5000, 1500),   // 300 s/km, this week
			run(now.AddDate(0, 0, -10), 10000, 3600), // 360 s/km, last week
		}
		stats := ComputeTrainingStats(activities, 20, now)

		if stats.TotalRuns != 2 {
			t.Errorf("TotalRuns = %d, want 2", stats.TotalRuns)
		}
		if stats.TotalDistanceKm != 15 {
			t.Errorf("TotalDistanceKm = %v, want 15", stats.TotalDistanceKm)
		}
		if stats.AveragePaceSec != 330 {
			t.Errorf("AveragePaceSec = %v, want 330", stats.AveragePaceSec)
		}
		if stats.AveragePace != "5:30/km" {
			t.Errorf("AveragePace = %q, want 5:30/km", stats.AveragePace)
		}
		if stats.WeekDistanceKm != 5 {
			t.Errorf("WeekDistanceKm = %v, want 5", stats.WeekDistanceKm)
		}
		if math.Abs(stats.WeeklyGoalProgress-0.25) > 1e-9 {
			t.Errorf("WeeklyGoalProgress = %v, want 0.25", stats.WeeklyGoalProgress)
		}
	})

	t.Run("progress is capped", func(t *testing.T) {
		activities := []store.Activity{run(now, 30000, 9000)}
		stats := ComputeTrainingStats(activities, 20, now)
		if stats.WeeklyGoalProgress != 1 {
			t.Errorf("WeeklyGoalProgress = %v, want 1", stats.WeeklyGoalProgress)
		}
	})

	t.Run("zero distance runs are not paced", func(t *testing.T) {
		activities := []store.Activity{
			run(now, 0, 1200),
			run(now, 5000, 1500),
		}
		stats := ComputeTrainingStats(activities, 0, now)
		if stats.AveragePaceSec != 300 {
			t.Errorf("AveragePaceSec = %v, want 300", stats.AveragePaceSec)
		}
		if stats.WeeklyGoalProgress != 0 {
			t.Errorf("WeeklyGoalProgress with no goal = %v, want 0", stats.WeeklyGoalProgress)
		}
	})
}

func TestWeeklyDistances(t *testing.T) {
	now := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)
	activities := []store.Activity{
		run(now, 5000, 1500),
		run(now.AddDate(0, 0, -1), 3000, 900),
		run(now.AddDate(0, 0, -7), 10000, 3000),
		run(now.AddDate(0, 0, -60), 20000, 6000), // outside the window
	}

	got := WeeklyDistances(activities, 4, now)
	want := []float64{0, 0, 10, 8}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("week %d = %v, want %v", i, got[i], want[i])
		}
	}

	if WeeklyDistances(activities, 0, now) != nil {
		t.Error("zero weeks should return nil")
	}
}
