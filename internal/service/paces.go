package service

import (
	"fmt"

	"runcoach/internal/analysis"
	"runcoach/internal/store"
)

// PaceService computes training paces and remembers the runner's reference performance
type PaceService struct {
	store *store.DB
}

// NewPaceService creates a new pace service
func NewPaceService(store *store.DB) *PaceService {
	return &PaceService{store: store}
}

// PaceReport is a pace result plus equivalent race times
type PaceReport struct {
	*analysis.PaceResult
	Equivalents []analysis.RaceEquivalent `json:"equivalents"`
}

// Calculate computes paces without storing anything
func (s *PaceService) Calculate(event, timeHMS string) (*PaceReport, error) {
	result, err := analysis.PacesFromPB(event, timeHMS)
	if err != nil {
		return nil, err
	}

	equivalents, err := analysis.EquivalentTimes(result.Input.Event, result.Input.TimeSeconds)
	if err != nil {
		return nil, err
	}

	return &PaceReport{PaceResult: result, Equivalents: equivalents}, nil
}

// CalculateAndSave computes paces and stores the PB as the profile's reference performance
func (s *PaceService) CalculateAndSave(event, timeHMS string) (*PaceReport, error) {
	report, err := s.Calculate(event, timeHMS)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetReferencePerformance(report.Input.Event, report.Input.TimeHMS); err != nil {
		return nil, fmt.Errorf("saving reference performance: %w", err)
	}
	return report, nil
}

// Current recomputes paces from the stored reference performance.
// Returns store.ErrNoReferencePerformance when none has been saved.
func (s *PaceService) Current() (*PaceReport, error) {
	event, timeHMS, err := s.store.GetReferencePerformance()
	if err != nil {
		return nil, err
	}
	return s.Calculate(event, timeHMS)
}
