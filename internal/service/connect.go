package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"runcoach/internal/auth"
	"runcoach/internal/store"
	"runcoach/internal/strava"
)

// StravaConnector links the local profile to a Strava account and builds
// API clients from the stored tokens
type StravaConnector struct {
	oauth   *oauth2.Config
	store   *store.DB
	options []strava.Option
}

// NewStravaConnector creates a connector. Options are passed to every client it builds.
func NewStravaConnector(oauthCfg *oauth2.Config, db *store.DB, opts ...strava.Option) *StravaConnector {
	return &StravaConnector{oauth: oauthCfg, store: db, options: opts}
}

// OAuthConfig returns the OAuth client configuration
func (c *StravaConnector) OAuthConfig() *oauth2.Config {
	return c.oauth
}

// ConnectURL returns the Strava authorize URL
func (c *StravaConnector) ConnectURL(state string) string {
	return auth.ConnectURL(c.oauth, state)
}

// ExchangeCode trades an authorization code for tokens and stores them
func (c *StravaConnector) ExchangeCode(ctx context.Context, code string) (*store.Auth, error) {
	result, err := auth.Exchange(ctx, c.oauth, code)
	if err != nil {
		return nil, err
	}
	return c.SaveResult(result)
}

// SaveResult persists a completed authorization
func (c *StravaConnector) SaveResult(result *auth.AuthResult) (*store.Auth, error) {
	stored := &store.Auth{
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}
	if err := c.store.SaveAuth(stored); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}
	if result.AthleteID != 0 {
		if err := c.store.SetProfileAthlete(result.AthleteID); err != nil {
			return nil, fmt.Errorf("linking profile: %w", err)
		}
	}

	log.WithField("athlete_id", result.AthleteID).Info("strava account connected")
	return stored, nil
}

// TokenSource returns a refreshing token source backed by the stored tokens.
// Returns store.ErrNoAuth when Strava is not connected.
func (c *StravaConnector) TokenSource() (*auth.TokenSource, error) {
	stored, err := c.store.GetAuth()
	if err != nil {
		return nil, err
	}
	return c.tokenSource(stored), nil
}

func (c *StravaConnector) tokenSource(stored *store.Auth) *auth.TokenSource {
	token := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Expiry:       stored.ExpiresAt,
	}
	return auth.NewTokenSource(c.oauth, token, func(newToken *oauth2.Token) error {
		return c.store.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
	})
}

// ConnectionStatus describes the stored Strava link without calling the API
type ConnectionStatus struct {
	Connected    bool      `json:"connected"`
	AthleteID    int64     `json:"athlete_id,omitempty"`
	ConnectedAt  time.Time `json:"connected_at,omitzero"`
	TokenExpiry  time.Time `json:"token_expiry,omitzero"`
	NeedsRefresh bool      `json:"needs_refresh"`
}

// Status reports whether an account is linked and whether its access
// token will be refreshed on the next request
func (c *StravaConnector) Status() (ConnectionStatus, error) {
	stored, err := c.store.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		return ConnectionStatus{}, nil
	}
	if err != nil {
		return ConnectionStatus{}, err
	}

	ts := c.tokenSource(stored)
	return ConnectionStatus{
		Connected:    true,
		AthleteID:    stored.AthleteID,
		ConnectedAt:  stored.ConnectedAt,
		TokenExpiry:  ts.CurrentToken().Expiry,
		NeedsRefresh: ts.IsExpired(),
	}, nil
}

// Client returns a Strava API client for the connected athlete
func (c *StravaConnector) Client() (*strava.Client, error) {
	ts, err := c.TokenSource()
	if err != nil {
		return nil, err
	}
	return strava.NewClient(ts, c.options...), nil
}

// Sync returns a sync service using the connected athlete's client
func (c *StravaConnector) Sync() (*SyncService, error) {
	client, err := c.Client()
	if err != nil {
		return nil, err
	}
	return NewSyncService(client, c.store), nil
}

// Disconnect forgets the stored tokens
func (c *StravaConnector) Disconnect() error {
	return c.store.DeleteAuth()
}
