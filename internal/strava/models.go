package strava

import (
	"fmt"
	"time"
)

// Activity represents a Strava activity from the API
type Activity struct {
	ID                 int64     `json:"id"`
	Athlete            Athlete   `json:"athlete"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Timezone           string    `json:"timezone"`
	Distance           float64   `json:"distance"`             // meters
	MovingTime         int       `json:"moving_time"`          // seconds
	ElapsedTime        int       `json:"elapsed_time"`         // seconds
	TotalElevationGain float64   `json:"total_elevation_gain"` // meters
	AverageSpeed       float64   `json:"average_speed"`        // m/s
	MaxSpeed           float64   `json:"max_speed"`            // m/s
	AverageHeartrate   float64   `json:"average_heartrate"`    // bpm
	MaxHeartrate       float64   `json:"max_heartrate"`        // bpm
	HasHeartrate       bool      `json:"has_heartrate"`
}

// runTypes are the sport types counted as runs
var runTypes = map[string]bool{
	"Run":        true,
	"TrailRun":   true,
	"VirtualRun": true,
}

// IsRun reports whether the activity is a run of any kind
func (a Activity) IsRun() bool {
	if a.SportType != "" {
		return runTypes[a.SportType]
	}
	return runTypes[a.Type]
}

// Athlete represents a Strava athlete. Activity responses only carry the ID.
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
	City      string `json:"city,omitempty"`
}

// DisplayName returns "First Last", falling back to the username
func (a Athlete) DisplayName() string {
	switch {
	case a.Firstname != "" && a.Lastname != "":
		return a.Firstname + " " + a.Lastname
	case a.Firstname != "":
		return a.Firstname
	default:
		return a.Username
	}
}

// APIError is a non-200 response from the Strava API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("strava API error %d: %s", e.StatusCode, e.Body)
}
