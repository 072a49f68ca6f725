package analysis

import (
	"fmt"
	"math"
)

// RaceEquivalent is a projected finish time at another race distance
type RaceEquivalent struct {
	Event            string  `json:"event"`
	Label            string  `json:"label"`
	DistanceMeters   float64 `json:"dist_m"`
	PredictedSeconds int     `json:"predicted_s"`
	PredictedTime    string  `json:"predicted_time"`
	PacePerKm        string  `json:"pace_per_km"`
	PacePerMile      string  `json:"pace_per_mile"`
}

// EquivalentTimes projects a PB onto every other event using Riegel's formula.
// The source event itself is skipped.
func EquivalentTimes(event string, seconds float64) ([]RaceEquivalent, error) {
	tag, err := NormalizeEvent(event)
	if err != nil {
		return nil, err
	}
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: finish time must be greater than zero", ErrInvalidFormat)
	}
	source := EventDistances[tag]

	var out []RaceEquivalent
	for _, target := range Events {
		if target == tag {
			continue
		}
		dist := EventDistances[target]
		predicted := RiegelProjectTime(seconds, source, dist, RiegelExponent)
		secPerKm := predicted / (dist / 1000)

		out = append(out, RaceEquivalent{
			Event:            target,
			Label:            GetEventLabel(target),
			DistanceMeters:   dist,
			PredictedSeconds: int(math.Round(predicted)),
			PredictedTime:    FormatDuration(int(math.Round(predicted))),
			PacePerKm:        FormatPacePerKm(secPerKm),
			PacePerMile:      FormatPacePerMile(KmPaceToMilePace(secPerKm)),
		})
	}
	return out, nil
}

// GetEventLabel returns a human-readable label for an event tag
func GetEventLabel(event string) string {
	labels := map[string]string{
		EventMile:     "1 Mile",
		Event5K:       "5K",
		Event10K:      "10K",
		EventHalf:     "Half Marathon",
		EventMarathon: "Marathon",
	}
	if label, ok := labels[event]; ok {
		return label
	}
	return event
}

// FormatDuration formats seconds as "H:MM:SS" or "M:SS"
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
