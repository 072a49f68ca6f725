package tui

import (
	"testing"

	"runcoach/internal/analysis"
	"runcoach/internal/store"
)

func TestUnitsFormatDistance(t *testing.T) {
	tests := []struct {
		name   string
		units  Units
		meters float64
		want   string
	}{
		{"km", NewUnits("km", "min/km"), 10000, "10.0 km"},
		{"miles", NewUnits("mi", "min/mi"), analysis.MetersPerMile * 3.1, "3.1 mi"},
		{"unknown unit falls back to km", NewUnits("", ""), 5000, "5.0 km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.units.FormatDistance(tt.meters); got != tt.want {
				t.Errorf("FormatDistance(%v) = %q, want %q", tt.meters, got, tt.want)
			}
		})
	}
}

func TestUnitsFormatPace(t *testing.T) {
	tests := []struct {
		name    string
		units   Units
		seconds int
		meters  float64
		want    string
	}{
		{"per km", NewUnits("km", "min/km"), 1500, 5000, "5:00/km"},
		{"per mile", NewUnits("km", "min/mi"), 1500, 5000, "8:03/mi"},
		{"no distance", NewUnits("km", "min/km"), 1500, 0, "-"},
		{"no time", NewUnits("km", "min/km"), 0, 5000, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.units.FormatPace(tt.seconds, tt.meters); got != tt.want {
				t.Errorf("FormatPace(%d, %v) = %q, want %q", tt.seconds, tt.meters, got, tt.want)
			}
		})
	}
}

func TestUnitsFromKm(t *testing.T) {
	km := NewUnits("km", "min/km")
	if got := km.FromKm(12.5); got != 12.5 {
		t.Errorf("FromKm in km = %v, want 12.5", got)
	}

	mi := NewUnits("mi", "min/mi")
	got := mi.FromKm(analysis.MetersPerMile / analysis.MetersPerKm)
	if got < 0.999 || got > 1.001 {
		t.Errorf("FromKm(one mile) = %v, want 1", got)
	}
}

func TestMatchingZones(t *testing.T) {
	result, err := analysis.PacesFromPB("10k", "50:00")
	if err != nil {
		t.Fatalf("PacesFromPB: %v", err)
	}

	// Threshold is 300 s/km, so 335 s/km sits in both the long and steady bands
	matched := matchingZones(result.Zones, 335)
	for _, zone := range []string{"long", "steady"} {
		if !matched[zone] {
			t.Errorf("expected %s to match 335 s/km, got %v", zone, matched)
		}
	}
	if matched["easy"] || matched["threshold"] {
		t.Errorf("unexpected zone match: %v", matched)
	}

	if got := matchingZones(result.Zones, 100); len(got) != 0 {
		t.Errorf("expected no zones for 100 s/km, got %v", got)
	}
}

func TestRunZone(t *testing.T) {
	result, err := analysis.PacesFromPB("10k", "50:00")
	if err != nil {
		t.Fatalf("PacesFromPB: %v", err)
	}

	tests := []struct {
		name       string
		distance   float64
		movingTime int
		want       string
	}{
		{"easy pace", 10000, 3600, "easy"},
		{"steady before long", 10000, 3350, "steady"},
		{"threshold", 10000, 3000, "threshold"},
		{"faster than every zone", 10000, 2000, "-"},
		{"no distance", 0, 3000, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := store.Activity{Distance: tt.distance, MovingTime: tt.movingTime}
			if got := runZone(result.Zones, a); got != tt.want {
				t.Errorf("runZone() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := runZone(nil, store.Activity{Distance: 10000, MovingTime: 3000}); got != "-" {
		t.Errorf("runZone(no zones) = %q, want -", got)
	}
}

func TestTruncateName(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Morning Run", 20, "Morning Run"},
		{"Long Sunday Run With Friends", 12, "Long Sund..."},
		{"Läufchen am Fluss", 10, "Läufche..."},
	}

	for _, tt := range tests {
		if got := truncateName(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateName(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{45, "0m 45s"},
		{1505, "25m 05s"},
		{5400, "1h 30m"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
