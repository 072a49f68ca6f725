package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RecentRun is the activity summary sent with a plan request
type RecentRun struct {
	Date        string  `json:"date"`
	Name        string  `json:"name"`
	DistanceKm  float64 `json:"distance_km"`
	MovingTime  string  `json:"moving_time"`
	PacePerKm   string  `json:"pace_per_km"`
	ElevationM  float64 `json:"elevation_m,omitempty"`
	AvgHeartBPM float64 `json:"avg_hr,omitempty"`
}

// ZoneHint is a training pace range included when a PB is known
type ZoneHint struct {
	Zone  string `json:"zone"`
	Range string `json:"range"`
}

// PlanRequest holds the runner's goal and context
type PlanRequest struct {
	RaceType     string
	GoalTime     string
	RaceDate     string
	RunsPerWeek  int
	FitnessLevel string
	Activities   []RecentRun
	Paces        []ZoneHint
}

// PlanResponse is the decoded model reply
type PlanResponse struct {
	WeeklyGoal GoalKm `json:"weeklyGoal"`
	Plan       string `json:"plan"`
	Message    string `json:"message"`
}

// GoalKm accepts a JSON number or a numeric string such as "32" or "32 km"
type GoalKm float64

func (g *GoalKm) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*g = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if fields := strings.Fields(s); len(fields) > 0 {
			s = fields[0]
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("weeklyGoal %s is not a distance", string(b))
	}
	*g = GoalKm(v)
	return nil
}

// BuildPlanPrompt renders the coaching prompt for a plan request
func BuildPlanPrompt(req PlanRequest) (string, error) {
	activities, err := json.Marshal(req.Activities)
	if err != nil {
		return "", fmt.Errorf("marshal activities: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a running coach. Based on the following athlete data and goals, ")
	b.WriteString("generate a realistic weekly mileage goal in kilometers and a brief training plan.\n")
	fmt.Fprintf(&b, "Athlete's recent activities: %s\n", activities)
	if req.FitnessLevel != "" {
		fmt.Fprintf(&b, "Fitness level: %s\n", req.FitnessLevel)
	}
	if len(req.Paces) > 0 {
		b.WriteString("Training paces from the athlete's personal best:\n")
		for _, p := range req.Paces {
			fmt.Fprintf(&b, "- %s: %s\n", p.Zone, p.Range)
		}
	}
	fmt.Fprintf(&b, "Race: %s\n", req.RaceType)
	fmt.Fprintf(&b, "Goal time: %s\n", req.GoalTime)
	fmt.Fprintf(&b, "Race date: %s\n", req.RaceDate)
	fmt.Fprintf(&b, "Runs per week: %d\n", req.RunsPerWeek)
	b.WriteString(`Return a JSON object: { "weeklyGoal": number, "plan": string, "message": string }`)
	return b.String(), nil
}

// GeneratePlan asks the model for a weekly goal and plan
func (c *Client) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	prompt, err := BuildPlanPrompt(req)
	if err != nil {
		return nil, err
	}

	var resp PlanResponse
	if err := c.CompleteJSON(ctx, prompt, &resp); err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	if strings.TrimSpace(resp.Plan) == "" {
		return nil, fmt.Errorf("generate plan: %w", ErrEmptyResponse)
	}
	return &resp, nil
}
