package service

import (
	"errors"
	"fmt"

	"runcoach/internal/config"
	"runcoach/internal/store"
)

// ErrInvalidProfile is returned when a profile update is rejected
var ErrInvalidProfile = errors.New("invalid profile")

const profileSeededKey = "profile_seeded"

var fitnessLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// ProfileService reads and updates the runner profile
type ProfileService struct {
	store *store.DB
}

// NewProfileService creates a new profile service
func NewProfileService(store *store.DB) *ProfileService {
	return &ProfileService{store: store}
}

// Get returns the profile, creating it with defaults on first access
func (s *ProfileService) Get() (*store.Profile, error) {
	return s.store.GetProfile()
}

// ProfileUpdate holds the editable profile fields
type ProfileUpdate struct {
	DisplayName  string  `json:"display_name"`
	FitnessLevel string  `json:"fitness_level"`
	WeeklyGoalKm float64 `json:"weekly_goal_km"`
	DistanceUnit string  `json:"distance_unit"`
}

// Validate rejects unknown levels, units and negative goals. Empty fields are allowed.
func (u ProfileUpdate) Validate() error {
	if u.FitnessLevel != "" && !fitnessLevels[u.FitnessLevel] {
		return fmt.Errorf("%w: fitness_level must be beginner, intermediate or advanced", ErrInvalidProfile)
	}
	if u.WeeklyGoalKm < 0 {
		return fmt.Errorf("%w: weekly_goal_km must not be negative", ErrInvalidProfile)
	}
	if u.DistanceUnit != "" && u.DistanceUnit != "km" && u.DistanceUnit != "mi" {
		return fmt.Errorf("%w: distance_unit must be km or mi", ErrInvalidProfile)
	}
	return nil
}

// Update validates and saves profile changes
func (s *ProfileService) Update(u ProfileUpdate) (*store.Profile, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	err := s.store.UpdateProfile(&store.Profile{
		DisplayName:  u.DisplayName,
		FitnessLevel: u.FitnessLevel,
		WeeklyGoalKm: u.WeeklyGoalKm,
		DistanceUnit: u.DistanceUnit,
	})
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return s.store.GetProfile()
}

// Seed copies the configured athlete settings into the profile once
func (s *ProfileService) Seed(athlete config.AthleteConfig, display config.DisplayConfig) error {
	seeded, err := s.store.GetSyncState(profileSeededKey)
	if err != nil {
		return err
	}
	if seeded != "" {
		return nil
	}

	update := ProfileUpdate{
		DisplayName:  athlete.DisplayName,
		FitnessLevel: athlete.FitnessLevel,
		WeeklyGoalKm: athlete.WeeklyGoalKm,
		DistanceUnit: display.DistanceUnit,
	}
	if _, err := s.Update(update); err != nil {
		return fmt.Errorf("seeding profile: %w", err)
	}
	return s.store.SetSyncState(profileSeededKey, "1")
}
