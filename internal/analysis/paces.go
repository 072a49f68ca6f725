package analysis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a finish time can't be parsed
var ErrInvalidFormat = errors.New("invalid time format")

// ErrUnknownEvent is returned when an event tag isn't a recognized race distance
var ErrUnknownEvent = errors.New("unknown event")

const (
	// RiegelExponent is the fatigue factor used when projecting between distances
	RiegelExponent = 1.06

	// KmPerMile converts a per-km pace into a per-mile pace
	KmPerMile = 1.60934

	// ThresholdDistance is the anchor distance for threshold pace (10K)
	ThresholdDistance = Distance10K
)

// Event tags accepted by PacesFromPB
const (
	EventMile     = "mile"
	Event5K       = "5k"
	Event10K      = "10k"
	EventHalf     = "half"
	EventMarathon = "marathon"
)

// EventDistances maps each event tag to its canonical distance in meters
var EventDistances = map[string]float64{
	EventMile:     Distance1Mile,
	Event5K:       Distance5K,
	Event10K:      Distance10K,
	EventHalf:     DistanceHalfMara,
	EventMarathon: DistanceMarathon,
}

// eventAliases lets the longer spelling of an event resolve to its tag
var eventAliases = map[string]string{
	"half-marathon": EventHalf,
}

// Events lists the event tags in distance order
var Events = []string{EventMile, Event5K, Event10K, EventHalf, EventMarathon}

// ZoneBand defines a training zone as multipliers of threshold pace
type ZoneBand struct {
	Name   string
	MinMul float64
	MaxMul float64
}

// zoneBands is ordered the way zones are presented
var zoneBands = []ZoneBand{
	{"easy", 1.15, 1.30},
	{"steady", 1.08, 1.15},
	{"threshold", 0.98, 1.03},
	{"interval", 0.90, 0.95},
	{"speed", 0.80, 0.88},
	{"long", 1.10, 1.25},
}

// ZoneBands returns a copy of the zone multiplier table
func ZoneBands() []ZoneBand {
	bands := make([]ZoneBand, len(zoneBands))
	copy(bands, zoneBands)
	return bands
}

// PaceInput echoes the reference performance a result was computed from
type PaceInput struct {
	Event          string  `json:"event"`
	TimeHMS        string  `json:"time_hms"`
	DistanceMeters float64 `json:"dist_m"`
	TimeSeconds    float64 `json:"time_s"`
}

// ThresholdPace is the estimated 10K-effort pace
type ThresholdPace struct {
	SecondsPerKm float64 `json:"s_per_km"`
	PerKm        string  `json:"per_km"`
	PerMile      string  `json:"per_mile"`
}

// PaceZone is a single training zone with bounds in seconds per km
type PaceZone struct {
	Name        string  `json:"name"`
	MinSecPerKm float64 `json:"min_s_per_km"`
	MaxSecPerKm float64 `json:"max_s_per_km"`
	MinPerKm    string  `json:"min"`
	MaxPerKm    string  `json:"max"`
	MinPerMile  string  `json:"min_mi"`
	MaxPerMile  string  `json:"max_mi"`
}

// PaceResult holds the full training pace table derived from a PB
type PaceResult struct {
	Input     PaceInput     `json:"input"`
	Threshold ThresholdPace `json:"threshold"`
	Zones     []PaceZone    `json:"zones"`
	Notes     string        `json:"notes"`
}

// Zone returns the named zone, or false if it doesn't exist
func (r *PaceResult) Zone(name string) (PaceZone, bool) {
	for _, z := range r.Zones {
		if z.Name == name {
			return z, true
		}
	}
	return PaceZone{}, false
}

// NormalizeEvent resolves an event tag or alias to its canonical tag
func NormalizeEvent(event string) (string, error) {
	tag := strings.ToLower(strings.TrimSpace(event))
	if alias, ok := eventAliases[tag]; ok {
		tag = alias
	}
	if _, ok := EventDistances[tag]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	return tag, nil
}

// maxTimeSeconds caps parsed times at a million hours
const maxTimeSeconds = 1_000_000 * 3600

// ParseHMS parses "h:mm:ss", "m:ss" or a bare number of seconds. Every
// field is an unsigned decimal integer.
func ParseHMS(hms string) (float64, error) {
	s := strings.TrimSpace(hms)
	if s == "" {
		return 0, fmt.Errorf("%w: empty time", ErrInvalidFormat)
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has %d fields", ErrInvalidFormat, hms, len(parts))
	}

	var total float64
	for _, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidFormat, p)
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidFormat, p)
		}
		total = total*60 + float64(n)
	}

	if total > maxTimeSeconds {
		return 0, fmt.Errorf("%w: %q is longer than %d hours", ErrInvalidFormat, hms, maxTimeSeconds/3600)
	}
	return total, nil
}

// RiegelProjectTime projects a time over d1 meters to d2 meters
// using t2 = t1 * (d2/d1)^exponent
func RiegelProjectTime(t1, d1, d2, exponent float64) float64 {
	return t1 * math.Pow(d2/d1, exponent)
}

// KmPaceToMilePace converts seconds per km to seconds per mile
func KmPaceToMilePace(secPerKm float64) float64 {
	return secPerKm * KmPerMile
}

// FormatPacePerKm renders seconds per km as "M:SS/km"
func FormatPacePerKm(secPerKm float64) string {
	return formatPace(secPerKm, "km")
}

// FormatPacePerMile renders seconds per mile as "M:SS/mi"
func FormatPacePerMile(secPerMile float64) string {
	return formatPace(secPerMile, "mi")
}

// formatPace rounds to the whole second before splitting so 59.6s carries
// into the minutes instead of showing as ":60"
func formatPace(seconds float64, unit string) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d/%s", total/60, total%60, unit)
}

// PacesFromPB derives threshold pace and training zones from a PB
func PacesFromPB(event, timeHMS string) (*PaceResult, error) {
	timeSec, err := ParseHMS(timeHMS)
	if err != nil {
		return nil, err
	}
	if timeSec <= 0 {
		return nil, fmt.Errorf("%w: finish time must be greater than zero", ErrInvalidFormat)
	}

	tag, err := NormalizeEvent(event)
	if err != nil {
		return nil, err
	}
	dist := EventDistances[tag]

	var thresholdTime float64
	var notes string
	if tag == Event10K {
		thresholdTime = timeSec
		notes = "10K PB used directly as threshold pace."
	} else {
		thresholdTime = RiegelProjectTime(timeSec, dist, ThresholdDistance, RiegelExponent)
		notes = fmt.Sprintf("PB projected to 10K using Riegel's formula (exponent %.2f).", RiegelExponent)
	}

	thresholdPace := thresholdTime / (ThresholdDistance / 1000)

	zones := make([]PaceZone, 0, len(zoneBands))
	for _, band := range zoneBands {
		minPace := thresholdPace * band.MinMul
		maxPace := thresholdPace * band.MaxMul
		zones = append(zones, PaceZone{
			Name:        band.Name,
			MinSecPerKm: minPace,
			MaxSecPerKm: maxPace,
			MinPerKm:    FormatPacePerKm(minPace),
			MaxPerKm:    FormatPacePerKm(maxPace),
			MinPerMile:  FormatPacePerMile(KmPaceToMilePace(minPace)),
			MaxPerMile:  FormatPacePerMile(KmPaceToMilePace(maxPace)),
		})
	}

	return &PaceResult{
		Input: PaceInput{
			Event:          tag,
			TimeHMS:        timeHMS,
			DistanceMeters: dist,
			TimeSeconds:    timeSec,
		},
		Threshold: ThresholdPace{
			SecondsPerKm: thresholdPace,
			PerKm:        FormatPacePerKm(thresholdPace),
			PerMile:      FormatPacePerMile(KmPaceToMilePace(thresholdPace)),
		},
		Zones: zones,
		Notes: notes,
	}, nil
}
