package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// refreshBuffer refreshes tokens shortly before they expire
const refreshBuffer = 60 * time.Second

// ErrNoRefreshToken is returned when an expired token cannot be renewed
var ErrNoRefreshToken = errors.New("no refresh token stored, reconnect strava")

// SaveTokenFunc persists a refreshed token. A failure keeps the old token.
type SaveTokenFunc func(*oauth2.Token) error

// TokenSource hands out the athlete's access token, renewing it through the
// Strava token endpoint when it is about to expire. Safe for concurrent use.
type TokenSource struct {
	mu     sync.Mutex
	config *oauth2.Config
	token  *oauth2.Token
	save   SaveTokenFunc
	now    func() time.Time
}

// NewTokenSource wraps token. save may be nil.
func NewTokenSource(cfg *oauth2.Config, token *oauth2.Token, save SaveTokenFunc) *TokenSource {
	return &TokenSource{
		config: cfg,
		token:  token,
		save:   save,
		now:    time.Now,
	}
}

// Token implements oauth2.TokenSource
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.expiring() {
		return ts.token, nil
	}
	if ts.token.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	renewed, err := ts.renew(context.Background())
	if err != nil {
		return nil, err
	}
	ts.token = renewed
	return renewed, nil
}

// renew trades the refresh token for a new access token and saves it
func (ts *TokenSource) renew(ctx context.Context) (*oauth2.Token, error) {
	// oauth2 only refreshes past the real expiry, not inside refreshBuffer
	stale := *ts.token
	stale.Expiry = ts.now().Add(-time.Minute)

	renewed, err := ts.config.TokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if renewed.RefreshToken == "" {
		renewed.RefreshToken = ts.token.RefreshToken
	}

	if ts.save != nil {
		if err := ts.save(renewed); err != nil {
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"expires_at": renewed.Expiry.Format(time.RFC3339),
		"rotated":    renewed.RefreshToken != ts.token.RefreshToken,
	}).Debug("strava token refreshed")
	return renewed, nil
}

func (ts *TokenSource) expiring() bool {
	return ts.token.Expiry.Sub(ts.now()) <= refreshBuffer
}

// IsExpired reports whether the next Token call will refresh
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.expiring()
}

// CurrentToken returns the held token without refreshing
func (ts *TokenSource) CurrentToken() *oauth2.Token {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token
}
