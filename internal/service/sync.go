package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"runcoach/internal/store"
	"runcoach/internal/strava"
)

// ActivityFetcher lists athlete activities. *strava.Client implements it.
type ActivityFetcher interface {
	GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]strava.Activity, error)
}

// SyncService orchestrates syncing data from Strava
type SyncService struct {
	client ActivityFetcher
	store  *store.DB
}

// NewSyncService creates a new sync service
func NewSyncService(client ActivityFetcher, store *store.DB) *SyncService {
	return &SyncService{client: client, store: store}
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase     string
	Fetched   int
	Stored    int
	LastTitle string
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int `json:"fetched"`
	RunsStored        int `json:"stored"`
	Skipped           int `json:"skipped"` // non-run activities

	// storeErr accumulates per-activity store failures
	storeErr error
}

// Errors returns the per-activity failures, if any
func (r *SyncResult) Errors() []error {
	return multierr.Errors(r.storeErr)
}

// Err returns all per-activity failures combined, or nil
func (r *SyncResult) Err() error {
	return r.storeErr
}

// SyncLatest fetches the most recent page of activities and stores the runs.
// A perPage of zero or less uses DefaultSyncPerPage.
func (s *SyncService) SyncLatest(ctx context.Context, perPage int) (*SyncResult, error) {
	if perPage <= 0 {
		perPage = DefaultSyncPerPage
	}
	if perPage > strava.MaxPerPage {
		perPage = strava.MaxPerPage
	}

	result := &SyncResult{}
	activities, err := s.client.GetActivities(ctx, time.Time{}, 1, perPage)
	if err != nil {
		s.recordError(err)
		return result, fmt.Errorf("fetching activities: %w", err)
	}

	s.storeActivities(activities, result)
	s.recordSuccess(result)
	return result, nil
}

// SyncAll fetches every activity newer than the latest stored one.
// Progress is reported on progress, which is closed on return when non-nil.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	after, err := s.store.LatestActivityDate()
	if err != nil {
		return nil, fmt.Errorf("reading latest activity: %w", err)
	}

	result := &SyncResult{}
	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		activities, err := s.client.GetActivities(ctx, after, page, FullSyncPerPage)
		if err != nil {
			s.recordError(err)
			return result, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(activities) == 0 {
			break
		}

		s.storeActivities(activities, result)

		if progress != nil {
			progress <- SyncProgress{
				Phase:     PhaseActivities,
				Fetched:   result.ActivitiesFetched,
				Stored:    result.RunsStored,
				LastTitle: activities[len(activities)-1].Name,
			}
		}

		if len(activities) < FullSyncPerPage {
			break // Last page
		}
	}

	s.recordSuccess(result)
	if progress != nil {
		progress <- SyncProgress{Phase: PhaseDone, Fetched: result.ActivitiesFetched, Stored: result.RunsStored}
	}
	return result, nil
}

func (s *SyncService) storeActivities(activities []strava.Activity, result *SyncResult) {
	result.ActivitiesFetched += len(activities)
	for _, a := range activities {
		if !a.IsRun() {
			result.Skipped++
			continue
		}
		if err := s.store.UpsertActivity(convertActivity(a)); err != nil {
			result.storeErr = multierr.Append(result.storeErr, fmt.Errorf("storing activity %d: %w", a.ID, err))
			continue
		}
		result.RunsStored++
	}
}

func (s *SyncService) recordSuccess(result *SyncResult) {
	fields := log.Fields{
		"fetched": result.ActivitiesFetched,
		"stored":  result.RunsStored,
		"skipped": result.Skipped,
	}
	if err := result.Err(); err != nil {
		log.WithFields(fields).WithError(err).Warn("sync finished with errors")
	} else {
		log.WithFields(fields).Info("sync finished")
	}

	if err := s.store.SetSyncTime(store.SyncKeyLastSync, time.Now()); err != nil {
		log.Errorf("recording sync time: %s", err)
	}
	if err := s.store.SetSyncState(store.SyncKeyLastError, ""); err != nil {
		log.Errorf("clearing sync error: %s", err)
	}
}

func (s *SyncService) recordError(syncErr error) {
	log.WithError(syncErr).Error("sync failed")
	if err := s.store.SetSyncState(store.SyncKeyLastError, syncErr.Error()); err != nil {
		log.Errorf("recording sync error: %s", err)
	}
}

// LastSync returns when the last successful sync finished, or the zero time
func (s *SyncService) LastSync() time.Time {
	t, err := s.store.GetSyncTime(store.SyncKeyLastSync)
	if err != nil {
		log.WithError(err).Warn("reading last sync time")
	}
	return t
}

// convertActivity converts a Strava API activity to a store activity
func convertActivity(a strava.Activity) *store.Activity {
	activity := &store.Activity{
		ID:                 a.ID,
		AthleteID:          a.Athlete.ID,
		Name:               a.Name,
		Type:               a.Type,
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		Timezone:           a.Timezone,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		AverageSpeed:       a.AverageSpeed,
		MaxSpeed:           a.MaxSpeed,
		HasHeartrate:       a.HasHeartrate,
	}
	if activity.StartDateLocal.IsZero() {
		activity.StartDateLocal = a.StartDate
	}

	if a.AverageHeartrate > 0 {
		hr := a.AverageHeartrate
		activity.AverageHeartrate = &hr
	}
	if a.MaxHeartrate > 0 {
		hr := a.MaxHeartrate
		activity.MaxHeartrate = &hr
	}

	return activity
}
