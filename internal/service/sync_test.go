package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runcoach/internal/store"
	"runcoach/internal/strava"
)

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenPath(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fetchCall struct {
	after   time.Time
	page    int
	perPage int
}

// fakeFetcher serves pre-built pages and records every request
type fakeFetcher struct {
	pages [][]strava.Activity
	err   error
	calls []fetchCall
}

func (f *fakeFetcher) GetActivities(_ context.Context, after time.Time, page, perPage int) ([]strava.Activity, error) {
	f.calls = append(f.calls, fetchCall{after: after, page: page, perPage: perPage})
	if f.err != nil {
		return nil, f.err
	}
	if page-1 >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page-1], nil
}

func stravaRun(id int64, sport string, start time.Time) strava.Activity {
	return strava.Activity{
		ID:               id,
		Athlete:          strava.Athlete{ID: 99},
		Name:             fmt.Sprintf("Activity %d", id),
		Type:             sport,
		SportType:        sport,
		StartDate:        start,
		StartDateLocal:   start,
		Distance:         5000,
		MovingTime:       1500,
		ElapsedTime:      1550,
		AverageSpeed:     3.33,
		AverageHeartrate: 150,
		HasHeartrate:     true,
	}
}

func TestSyncLatest(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{pages: [][]strava.Activity{{
		stravaRun(1, "Run", start),
		stravaRun(2, "Ride", start.Add(time.Hour)),
		stravaRun(3, "TrailRun", start.Add(2*time.Hour)),
	}}}

	svc := NewSyncService(fetcher, db)
	result, err := svc.SyncLatest(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ActivitiesFetched)
	assert.Equal(t, 2, result.RunsStored)
	assert.Equal(t, 1, result.Skipped)
	assert.NoError(t, result.Err())

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, DefaultSyncPerPage, fetcher.calls[0].perPage)
	assert.True(t, fetcher.calls[0].after.IsZero())

	count, err := db.CountActivities()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored, err := db.GetActivity(1)
	require.NoError(t, err)
	require.NotNil(t, stored.AverageHeartrate)
	assert.Equal(t, 150.0, *stored.AverageHeartrate)
	assert.Nil(t, stored.MaxHeartrate)

	assert.False(t, svc.LastSync().IsZero())
}

func TestSyncLatest_PerPageCapped(t *testing.T) {
	db := setupTestDB(t)
	fetcher := &fakeFetcher{}

	_, err := NewSyncService(fetcher, db).SyncLatest(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, strava.MaxPerPage, fetcher.calls[0].perPage)
}

func TestSyncLatest_FetchError(t *testing.T) {
	db := setupTestDB(t)
	apiErr := &strava.APIError{StatusCode: 401, Body: "unauthorized"}
	fetcher := &fakeFetcher{err: apiErr}

	svc := NewSyncService(fetcher, db)
	_, err := svc.SyncLatest(context.Background(), 10)
	require.Error(t, err)

	var target *strava.APIError
	assert.True(t, errors.As(err, &target))

	lastErr, err := db.GetSyncState(store.SyncKeyLastError)
	require.NoError(t, err)
	assert.Contains(t, lastErr, "401")
	assert.True(t, svc.LastSync().IsZero())
}

func TestSyncAll_Incremental(t *testing.T) {
	db := setupTestDB(t)
	latest := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpsertActivity(convertActivity(stravaRun(1, "Run", latest))))

	full := make([]strava.Activity, FullSyncPerPage)
	for i := range full {
		full[i] = stravaRun(int64(100+i), "Run", latest.Add(time.Duration(i+1)*time.Hour))
	}
	fetcher := &fakeFetcher{pages: [][]strava.Activity{
		full,
		{stravaRun(500, "Run", latest.AddDate(0, 0, 10)), stravaRun(501, "Swim", latest.AddDate(0, 0, 11))},
	}}

	progress := make(chan SyncProgress, 10)
	result, err := NewSyncService(fetcher, db).SyncAll(context.Background(), progress)
	require.NoError(t, err)

	assert.Equal(t, FullSyncPerPage+2, result.ActivitiesFetched)
	assert.Equal(t, FullSyncPerPage+1, result.RunsStored)
	assert.Equal(t, 1, result.Skipped)

	// The second page is short so no third request is made
	require.Len(t, fetcher.calls, 2)
	for _, c := range fetcher.calls {
		assert.True(t, c.after.Equal(latest), "after = %v", c.after)
		assert.Equal(t, FullSyncPerPage, c.perPage)
	}

	var updates []SyncProgress
	for p := range progress {
		updates = append(updates, p)
	}
	require.Len(t, updates, 3)
	assert.Equal(t, PhaseActivities, updates[0].Phase)
	assert.Equal(t, FullSyncPerPage, updates[0].Fetched)
	assert.Equal(t, "Activity 501", updates[1].LastTitle)
	assert.Equal(t, PhaseDone, updates[2].Phase)
	assert.Equal(t, FullSyncPerPage+1, updates[2].Stored)
}

func TestSyncAll_Cancelled(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	_, err := NewSyncService(fetcher, db).SyncAll(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.calls)
}

func TestConvertActivity(t *testing.T) {
	start := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		in        strava.Activity
		wantLocal time.Time
		wantHR    bool
	}{
		{
			name:      "heart rate kept",
			in:        stravaRun(1, "Run", start),
			wantLocal: start,
			wantHR:    true,
		},
		{
			name: "missing local date falls back to UTC start",
			in: strava.Activity{
				ID:        2,
				Type:      "Run",
				StartDate: start,
			},
			wantLocal: start,
			wantHR:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertActivity(tt.in)
			assert.Equal(t, tt.in.ID, got.ID)
			assert.True(t, got.StartDateLocal.Equal(tt.wantLocal))
			assert.Equal(t, tt.wantHR, got.AverageHeartrate != nil)
		})
	}
}
