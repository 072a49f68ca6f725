package strava

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRateLimiter_UpdateFromHeaders(t *testing.T) {
	tests := []struct {
		name          string
		usage         string
		limit         string
		wantShortLeft int
		wantDailyLeft int
	}{
		{"no headers", "", "", 100, 1000},
		{"usage only", "34,512", "", 66, 488},
		{"usage and limit", "10,20", "200,2000", 190, 1980},
		{"spaces tolerated", "5, 6", "", 95, 994},
		{"malformed usage ignored", "abc,12", "", 100, 1000},
		{"single value ignored", "40", "", 100, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRateLimiter()
			h := http.Header{}
			if tt.usage != "" {
				h.Set("X-RateLimit-Usage", tt.usage)
			}
			if tt.limit != "" {
				h.Set("X-RateLimit-Limit", tt.limit)
			}
			r.UpdateFromHeaders(h)

			short, daily := r.Status()
			if short != tt.wantShortLeft || daily != tt.wantDailyLeft {
				t.Errorf("Status() = (%d, %d), want (%d, %d)", short, daily, tt.wantShortLeft, tt.wantDailyLeft)
			}
		})
	}
}

func TestRateLimiter_WaitCountsRequests(t *testing.T) {
	r := NewRateLimiterWithLimits(100, 1000, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := r.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	short, daily := r.Usage()
	if short != 3 || daily != 3 {
		t.Errorf("Usage() = (%d, %d), want (3, 3)", short, daily)
	}
}

func TestRateLimiter_WaitRespectsContextAtLimit(t *testing.T) {
	r := NewRateLimiterWithLimits(100, 1000, 0)
	r.UpdateFromHeaders(http.Header{"X-Ratelimit-Usage": []string{"100,100"}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait() should return once the context ends")
	}
}

func TestRateLimiter_MinInterval(t *testing.T) {
	interval := 30 * time.Millisecond
	r := NewRateLimiterWithLimits(100, 1000, interval)
	ctx := context.Background()

	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	start := time.Now()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < interval-5*time.Millisecond {
		t.Errorf("second Wait() returned after %v, want at least ~%v", elapsed, interval)
	}
}

func TestNextUTCMidnight(t *testing.T) {
	in := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	want := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if got := nextUTCMidnight(in); !got.Equal(want) {
		t.Errorf("nextUTCMidnight() = %v, want %v", got, want)
	}
}
