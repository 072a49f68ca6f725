package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Strava rate limits:
// - 100 requests per 15 minutes
// - 1000 requests per day, reset at midnight UTC
const (
	DefaultShortLimit  = 100
	DefaultDailyLimit  = 1000
	DefaultMinInterval = 150 * time.Millisecond
	shortWindow        = 15 * time.Minute
)

// RateLimiter manages Strava API rate limits
type RateLimiter struct {
	mu sync.Mutex

	// 15-minute window
	shortLimit    int
	shortUsage    int
	shortResetsAt time.Time

	// Daily window
	dailyLimit    int
	dailyUsage    int
	dailyResetsAt time.Time

	// Minimum interval between requests
	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a new rate limiter with Strava's limits
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(DefaultShortLimit, DefaultDailyLimit, DefaultMinInterval)
}

// NewRateLimiterWithLimits creates a limiter with custom limits
func NewRateLimiterWithLimits(shortLimit, dailyLimit int, minInterval time.Duration) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		shortLimit:    shortLimit,
		shortResetsAt: now.Add(shortWindow),
		dailyLimit:    dailyLimit,
		dailyResetsAt: nextUTCMidnight(now),
		minInterval:   minInterval,
	}
}

// Wait blocks until a request can be made without exceeding rate limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetExpired(time.Now())

	if r.shortUsage >= r.shortLimit {
		log.Warnf("strava 15-minute limit reached, waiting until %s", r.shortResetsAt.Format(time.Kitchen))
		if err := r.sleepUnlocked(ctx, time.Until(r.shortResetsAt)); err != nil {
			return err
		}
		r.shortUsage = 0
		r.shortResetsAt = time.Now().Add(shortWindow)
	}

	if r.dailyUsage >= r.dailyLimit {
		log.Warnf("strava daily limit reached, waiting until %s", r.dailyResetsAt.Format(time.RFC3339))
		if err := r.sleepUnlocked(ctx, time.Until(r.dailyResetsAt)); err != nil {
			return err
		}
		r.dailyUsage = 0
		r.dailyResetsAt = nextUTCMidnight(time.Now())
	}

	if elapsed := time.Since(r.lastRequest); elapsed < r.minInterval {
		if err := r.sleepUnlocked(ctx, r.minInterval-elapsed); err != nil {
			return err
		}
	}

	r.shortUsage++
	r.dailyUsage++
	r.lastRequest = time.Now()

	return nil
}

// sleepUnlocked releases the lock while waiting. Called with r.mu held.
func (r *RateLimiter) sleepUnlocked(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	r.mu.Unlock()
	defer r.mu.Lock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *RateLimiter) resetExpired(now time.Time) {
	if now.After(r.shortResetsAt) {
		r.shortUsage = 0
		r.shortResetsAt = now.Add(shortWindow)
	}
	if now.After(r.dailyResetsAt) {
		r.dailyUsage = 0
		r.dailyResetsAt = nextUTCMidnight(now)
	}
}

// UpdateFromHeaders updates rate limit state from Strava response headers
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strava returns: X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512"
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.shortUsage = short
		r.dailyUsage = daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.shortLimit = short
		r.dailyLimit = daily
	}
}

func parsePair(v string) (first, second int, ok bool) {
	parts := strings.Split(v, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	second, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return first, second, true
}

// Status returns current rate limit status
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortLimit - r.shortUsage, r.dailyLimit - r.dailyUsage
}

// Usage returns current usage counts
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortUsage, r.dailyUsage
}

func nextUTCMidnight(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}
