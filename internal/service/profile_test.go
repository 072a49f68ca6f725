package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runcoach/internal/config"
)

func TestProfileUpdate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		update  ProfileUpdate
		wantErr bool
	}{
		{"empty", ProfileUpdate{}, false},
		{"full", ProfileUpdate{DisplayName: "Kim", FitnessLevel: "advanced", WeeklyGoalKm: 60, DistanceUnit: "mi"}, false},
		{"bad level", ProfileUpdate{FitnessLevel: "elite"}, true},
		{"negative goal", ProfileUpdate{WeeklyGoalKm: -1}, true},
		{"bad unit", ProfileUpdate{DistanceUnit: "m"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProfile)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfileService_Update(t *testing.T) {
	svc := NewProfileService(setupTestDB(t))

	p, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "beginner", p.FitnessLevel)

	p, err = svc.Update(ProfileUpdate{DisplayName: "Kim", FitnessLevel: "intermediate", WeeklyGoalKm: 35, DistanceUnit: "mi"})
	require.NoError(t, err)
	assert.Equal(t, "Kim", p.DisplayName)
	assert.Equal(t, "intermediate", p.FitnessLevel)
	assert.Equal(t, 35.0, p.WeeklyGoalKm)
	assert.Equal(t, "mi", p.DistanceUnit)

	_, err = svc.Update(ProfileUpdate{FitnessLevel: "pro"})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	p, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "intermediate", p.FitnessLevel)
}

func TestProfileService_SeedOnce(t *testing.T) {
	svc := NewProfileService(setupTestDB(t))

	athlete := config.AthleteConfig{DisplayName: "Kim", FitnessLevel: "advanced", WeeklyGoalKm: 50}
	display := config.DisplayConfig{DistanceUnit: "km"}
	require.NoError(t, svc.Seed(athlete, display))

	p, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "advanced", p.FitnessLevel)
	assert.Equal(t, 50.0, p.WeeklyGoalKm)

	// Later edits survive a restart with the same config
	_, err = svc.Update(ProfileUpdate{FitnessLevel: "beginner", WeeklyGoalKm: 25})
	require.NoError(t, err)
	require.NoError(t, svc.Seed(athlete, display))

	p, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "beginner", p.FitnessLevel)
	assert.Equal(t, 25.0, p.WeeklyGoalKm)
}
