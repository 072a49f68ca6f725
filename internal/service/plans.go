package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"runcoach/internal/analysis"
	"runcoach/internal/llm"
	"runcoach/internal/store"
)

// ErrInvalidPlanRequest is returned when plan inputs are missing or malformed
var ErrInvalidPlanRequest = errors.New("invalid plan request")

// PlanGenerator drafts a plan from a request. *llm.Client implements it.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req llm.PlanRequest) (*llm.PlanResponse, error)
}

// PlanService generates and stores AI training plans
type PlanService struct {
	store     *store.DB
	generator PlanGenerator
	now       func() time.Time
}

// NewPlanService creates a new plan service
func NewPlanService(store *store.DB, generator PlanGenerator) *PlanService {
	return &PlanService{store: store, generator: generator, now: time.Now}
}

// PlanInput is the runner's race goal
type PlanInput struct {
	RaceType    string `json:"raceType"`
	GoalTime    string `json:"goalTime"`
	RaceDate    string `json:"raceDate"`
	RunsPerWeek int    `json:"runsPerWeek"`
}

// Validate checks required fields and formats
func (in PlanInput) Validate() error {
	if strings.TrimSpace(in.RaceType) == "" {
		return fmt.Errorf("%w: raceType is required", ErrInvalidPlanRequest)
	}
	if strings.TrimSpace(in.GoalTime) == "" {
		return fmt.Errorf("%w: goalTime is required", ErrInvalidPlanRequest)
	}
	if _, err := analysis.ParseHMS(in.GoalTime); err != nil {
		return fmt.Errorf("%w: goalTime: %v", ErrInvalidPlanRequest, err)
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(in.RaceDate)); err != nil {
		return fmt.Errorf("%w: raceDate must be YYYY-MM-DD", ErrInvalidPlanRequest)
	}
	if in.RunsPerWeek < 1 || in.RunsPerWeek > MaxRunsPerWeek {
		return fmt.Errorf("%w: runsPerWeek must be between 1 and %d", ErrInvalidPlanRequest, MaxRunsPerWeek)
	}
	return nil
}

// PlanResult is returned to callers after a plan is generated
type PlanResult struct {
	ID         string  `json:"id"`
	WeeklyGoal float64 `json:"weeklyGoal"`
	Plan       string  `json:"plan"`
	Message    string  `json:"message"`
}

// Generate asks the model for a plan using recent runs and, when a PB is
// stored, the runner's pace zones. The plan becomes the active plan.
func (s *PlanService) Generate(ctx context.Context, in PlanInput) (*PlanResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	req, err := s.buildRequest(in)
	if err != nil {
		return nil, err
	}

	resp, err := s.generator.GeneratePlan(ctx, req)
	if err != nil {
		return nil, err
	}

	plan := &store.TrainingPlan{
		RaceType:    in.RaceType,
		GoalTime:    in.GoalTime,
		RaceDate:    in.RaceDate,
		RunsPerWeek: in.RunsPerWeek,
		WeeklyGoal:  float64(resp.WeeklyGoal),
		Plan:        resp.Plan,
		Message:     resp.Message,
		AIGenerated: true,
	}
	if err := s.store.SavePlan(plan); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}

	log.WithFields(log.Fields{
		"plan_id":     plan.ID,
		"race":        in.RaceType,
		"weekly_goal": plan.WeeklyGoal,
	}).Info("training plan generated")

	return &PlanResult{
		ID:         plan.ID,
		WeeklyGoal: plan.WeeklyGoal,
		Plan:       plan.Plan,
		Message:    plan.Message,
	}, nil
}

// Latest returns the most recent plan, or store.ErrPlanNotFound
func (s *PlanService) Latest() (*store.TrainingPlan, error) {
	return s.store.LatestPlan()
}

// History returns up to limit stored plans, newest first
func (s *PlanService) History(limit int) ([]store.TrainingPlan, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	plans, err := s.store.ListPlans(limit)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	if plans == nil {
		plans = []store.TrainingPlan{}
	}
	return plans, nil
}

func (s *PlanService) buildRequest(in PlanInput) (llm.PlanRequest, error) {
	req := llm.PlanRequest{
		RaceType:    in.RaceType,
		GoalTime:    in.GoalTime,
		RaceDate:    in.RaceDate,
		RunsPerWeek: in.RunsPerWeek,
	}

	profile, err := s.store.GetProfile()
	if err != nil {
		return req, fmt.Errorf("loading profile: %w", err)
	}
	req.FitnessLevel = profile.FitnessLevel

	since := s.now().AddDate(0, 0, -PlanActivityDays)
	activities, err := s.store.ListActivitiesSince(since)
	if err != nil {
		return req, fmt.Errorf("loading recent activities: %w", err)
	}
	if len(activities) > PlanActivityLimit {
		activities = activities[:PlanActivityLimit]
	}
	req.Activities = recentRuns(activities)

	if profile.HasReferencePerformance() {
		result, err := analysis.PacesFromPB(profile.PBEvent, profile.PBTime)
		if err != nil {
			log.Warnf("stored reference performance is unusable: %s", err)
		} else {
			for _, z := range result.Zones {
				req.Paces = append(req.Paces, llm.ZoneHint{
					Zone:  z.Name,
					Range: z.MinPerKm + " - " + z.MaxPerKm,
				})
			}
		}
	}

	return req, nil
}

func recentRuns(activities []store.Activity) []llm.RecentRun {
	runs := make([]llm.RecentRun, 0, len(activities))
	for _, a := range activities {
		km := a.Distance / analysis.MetersPerKm
		run := llm.RecentRun{
			Date:       a.StartDateLocal.Format("2006-01-02"),
			Name:       a.Name,
			DistanceKm: roundTo(km, 2),
			MovingTime: analysis.FormatDuration(a.MovingTime),
			ElevationM: roundTo(a.TotalElevationGain, 0),
		}
		if km > 0 {
			run.PacePerKm = analysis.FormatPacePerKm(float64(a.MovingTime) / km)
		}
		if a.AverageHeartrate != nil {
			run.AvgHeartBPM = roundTo(*a.AverageHeartrate, 0)
		}
		runs = append(runs, run)
	}
	return runs
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
