package tui

import (
	"fmt"

	"runcoach/internal/analysis"
)

// Units formats distances and paces in the runner's preferred units
type Units struct {
	distanceUnit string // "km" or "mi"
	paceUnit     string // "min/km" or "min/mi"
}

// NewUnits creates a Units helper. Unknown values fall back to km and min/km.
func NewUnits(distanceUnit, paceUnit string) Units {
	return Units{distanceUnit: distanceUnit, paceUnit: paceUnit}
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.distanceUnit == "mi"
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.IsMiles() {
		return "mi"
	}
	return "km"
}

// Distance converts meters to the preferred unit
func (u Units) Distance(meters float64) float64 {
	if u.IsMiles() {
		return meters / analysis.MetersPerMile
	}
	return meters / analysis.MetersPerKm
}

// FromKm converts kilometers to the preferred unit
func (u Units) FromKm(km float64) float64 {
	return u.Distance(km * analysis.MetersPerKm)
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	return fmt.Sprintf("%.1f %s", u.Distance(meters), u.DistanceLabel())
}

// FormatPace formats the pace of a run, "-" when it has no distance or time
func (u Units) FormatPace(seconds int, meters float64) string {
	if meters <= 0 || seconds <= 0 {
		return "-"
	}
	secPerKm := float64(seconds) / (meters / analysis.MetersPerKm)
	return u.FormatSecPerKm(secPerKm)
}

// FormatSecPerKm renders a pace given in seconds per km in the preferred pace unit
func (u Units) FormatSecPerKm(secPerKm float64) string {
	if u.paceUnit == "min/mi" {
		return analysis.FormatPacePerMile(analysis.KmPaceToMilePace(secPerKm))
	}
	return analysis.FormatPacePerKm(secPerKm)
}
