package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func newTestServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func samplePlanRequest() PlanRequest {
	return PlanRequest{
		RaceType:     "10k",
		GoalTime:     "45:00",
		RaceDate:     "2024-06-01",
		RunsPerWeek:  4,
		FitnessLevel: "intermediate",
		Activities: []RecentRun{
			{Date: "2024-01-15", Name: "Morning Run", DistanceKm: 5, MovingTime: "25:00", PacePerKm: "5:00/km"},
		},
		Paces: []ZoneHint{{Zone: "easy", Range: "5:45-6:30/km"}},
	}
}

func TestGeneratePlan(t *testing.T) {
	var seen chatRequest
	srv := newTestServer(t, http.StatusOK,
		completionBody(`{"weeklyGoal": 32.5, "plan": "Week 1: 4 easy runs", "message": "You've got this"}`), &seen)
	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/"})

	resp, err := c.GeneratePlan(context.Background(), samplePlanRequest())
	require.NoError(t, err)
	assert.Equal(t, GoalKm(32.5), resp.WeeklyGoal)
	assert.Equal(t, "Week 1: 4 easy runs", resp.Plan)
	assert.Equal(t, "You've got this", resp.Message)

	assert.Equal(t, DefaultModel, seen.Model)
	require.NotNil(t, seen.ResponseFormat)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "user", seen.Messages[0].Role)
	assert.Contains(t, seen.Messages[0].Content, "Race: 10k")
	assert.Contains(t, seen.Messages[0].Content, "Runs per week: 4")
	assert.Contains(t, seen.Messages[0].Content, "- easy: 5:45-6:30/km")
}

func TestGeneratePlan_NotConfigured(t *testing.T) {
	c := New(Config{})
	assert.False(t, c.Configured())

	_, err := c.GeneratePlan(context.Background(), samplePlanRequest())
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestGeneratePlan_UpstreamError(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, nil)
	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL})

	_, err := c.GeneratePlan(context.Background(), samplePlanRequest())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "error = %v", err)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "rate limited")
	assert.NotContains(t, err.Error(), "sk-test")
}

func TestGeneratePlan_BadContent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"no choices", `{"choices": []}`, ErrEmptyResponse},
		{"blank content", completionBody("  "), ErrEmptyResponse},
		{"empty plan", completionBody(`{"weeklyGoal": 30, "plan": "", "message": "hi"}`), ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, http.StatusOK, tt.body, nil)
			c := New(Config{APIKey: "sk-test", BaseURL: srv.URL})

			_, err := c.GeneratePlan(context.Background(), samplePlanRequest())
			assert.True(t, errors.Is(err, tt.want), "error = %v", err)
		})
	}

	t.Run("not json", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, completionBody("here is your plan"), nil)
		c := New(Config{APIKey: "sk-test", BaseURL: srv.URL})

		_, err := c.GeneratePlan(context.Background(), samplePlanRequest())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadResponse)
		assert.Contains(t, err.Error(), "decode completion content")
	})

	t.Run("garbled envelope", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, `{"choices": [`, nil)
		c := New(Config{APIKey: "sk-test", BaseURL: srv.URL})

		_, err := c.GeneratePlan(context.Background(), samplePlanRequest())
		assert.ErrorIs(t, err, ErrBadResponse)
	})
}

func TestGoalKmUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    GoalKm
		wantErr bool
	}{
		{`30`, 30, false},
		{`32.5`, 32.5, false},
		{`"40"`, 40, false},
		{`"35 km"`, 35, false},
		{`null`, 0, false},
		{`-5`, 0, true},
		{`"lots"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var g GoalKm
			err := json.Unmarshal([]byte(tt.in), &g)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)
		})
	}
}

func TestBuildPlanPrompt_NoPaces(t *testing.T) {
	req := samplePlanRequest()
	req.Paces = nil

	prompt, err := BuildPlanPrompt(req)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Training paces")
	assert.Contains(t, prompt, `"weeklyGoal": number`)
	assert.Contains(t, prompt, `"distance_km":5`)
}
