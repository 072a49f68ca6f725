package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runcoach/internal/analysis"
	"runcoach/internal/llm"
	"runcoach/internal/store"
)

type fakeGenerator struct {
	resp *llm.PlanResponse
	err  error
	got  *llm.PlanRequest
}

func (f *fakeGenerator) GeneratePlan(_ context.Context, req llm.PlanRequest) (*llm.PlanResponse, error) {
	f.got = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func validPlanInput() PlanInput {
	return PlanInput{
		RaceType:    "half",
		GoalTime:    "1:45:00",
		RaceDate:    "2025-06-01",
		RunsPerWeek: 4,
	}
}

func TestPlanInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PlanInput)
		wantErr bool
	}{
		{"valid", func(*PlanInput) {}, false},
		{"missing race type", func(in *PlanInput) { in.RaceType = " " }, true},
		{"missing goal time", func(in *PlanInput) { in.GoalTime = "" }, true},
		{"bad goal time", func(in *PlanInput) { in.GoalTime = "fast" }, true},
		{"bad date", func(in *PlanInput) { in.RaceDate = "06/01/2025" }, true},
		{"zero runs", func(in *PlanInput) { in.RunsPerWeek = 0 }, true},
		{"too many runs", func(in *PlanInput) { in.RunsPerWeek = MaxRunsPerWeek + 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validPlanInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPlanRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlanService_Generate(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

	hr := 148.4
	recent := now.AddDate(0, 0, -3)
	require.NoError(t, db.UpsertActivity(&store.Activity{
		ID:                 1,
		Name:               "Tempo",
		Type:               "Run",
		StartDate:          recent,
		StartDateLocal:     recent,
		Distance:           10123,
		MovingTime:         3000,
		TotalElevationGain: 42.6,
		AverageHeartrate:   &hr,
	}))
	old := now.AddDate(0, 0, -PlanActivityDays-5)
	require.NoError(t, db.UpsertActivity(&store.Activity{
		ID:             2,
		Type:           "Run",
		StartDate:      old,
		StartDateLocal: old,
		Distance:       5000,
		MovingTime:     1500,
	}))
	require.NoError(t, db.UpdateProfile(&store.Profile{FitnessLevel: "intermediate"}))
	require.NoError(t, db.SetReferencePerformance(analysis.Event10K, "50:00"))

	gen := &fakeGenerator{resp: &llm.PlanResponse{
		WeeklyGoal: 32.5,
		Plan:       "Mon: rest",
		Message:    "Good luck",
	}}
	svc := NewPlanService(db, gen)
	svc.now = func() time.Time { return now }

	result, err := svc.Generate(context.Background(), validPlanInput())
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 32.5, result.WeeklyGoal)
	assert.Equal(t, "Mon: rest", result.Plan)

	require.NotNil(t, gen.got)
	assert.Equal(t, "intermediate", gen.got.FitnessLevel)
	require.Len(t, gen.got.Activities, 1)
	run := gen.got.Activities[0]
	assert.Equal(t, "2025-03-09", run.Date)
	assert.Equal(t, 10.12, run.DistanceKm)
	assert.Equal(t, 43.0, run.ElevationM)
	assert.Equal(t, 148.0, run.AvgHeartBPM)
	assert.Equal(t, "50:00", run.MovingTime)

	require.Len(t, gen.got.Paces, 6)
	assert.Equal(t, "easy", gen.got.Paces[0].Zone)
	assert.Equal(t, "5:45/km - 6:30/km", gen.got.Paces[0].Range)

	latest, err := svc.Latest()
	require.NoError(t, err)
	assert.Equal(t, result.ID, latest.ID)
	assert.True(t, latest.IsActive)
	assert.True(t, latest.AIGenerated)
	assert.Equal(t, "half", latest.RaceType)
}

func TestPlanService_GenerateWithoutReference(t *testing.T) {
	db := setupTestDB(t)
	gen := &fakeGenerator{resp: &llm.PlanResponse{Plan: "Run easy"}}

	_, err := NewPlanService(db, gen).Generate(context.Background(), validPlanInput())
	require.NoError(t, err)
	assert.Empty(t, gen.got.Paces)
	assert.Empty(t, gen.got.Activities)
	assert.Equal(t, store.DefaultFitnessLevel, gen.got.FitnessLevel)
}

func TestPlanService_Errors(t *testing.T) {
	db := setupTestDB(t)

	t.Run("invalid input skips the model", func(t *testing.T) {
		gen := &fakeGenerator{}
		in := validPlanInput()
		in.RunsPerWeek = 0
		_, err := NewPlanService(db, gen).Generate(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidPlanRequest)
		assert.Nil(t, gen.got)
	})

	t.Run("generator failure stores nothing", func(t *testing.T) {
		gen := &fakeGenerator{err: llm.ErrNotConfigured}
		_, err := NewPlanService(db, gen).Generate(context.Background(), validPlanInput())
		assert.True(t, errors.Is(err, llm.ErrNotConfigured))

		_, err = db.LatestPlan()
		assert.ErrorIs(t, err, store.ErrPlanNotFound)
	})
}
