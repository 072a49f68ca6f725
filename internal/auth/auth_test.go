package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := map[string]any{
			"token_type":    "Bearer",
			"access_token":  "access-" + r.PostForm.Get("grant_type"),
			"refresh_token": "refresh-new",
			"expires_in":    21600,
		}
		if r.PostForm.Get("grant_type") == "authorization_code" {
			if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("client_secret") != "secret" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant"}`)
				return
			}
			resp["athlete"] = map[string]any{"id": 4242, "firstname": "Sam"}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return NewOAuthConfig(Config{
		ClientID:     "123",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/strava/callback",
		TokenURL:     tokenURL,
	})
}

func TestConnectURL(t *testing.T) {
	cfg := testOAuthConfig("")
	u, err := url.Parse(ConnectURL(cfg, "xyz"))
	require.NoError(t, err)

	assert.Equal(t, "www.strava.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "123", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "activity:read_all", q.Get("scope"))
	assert.Equal(t, "auto", q.Get("approval_prompt"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "http://localhost:8080/strava/callback", q.Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls)
	cfg := testOAuthConfig(srv.URL)

	t.Run("success", func(t *testing.T) {
		res, err := Exchange(context.Background(), cfg, "good-code")
		require.NoError(t, err)
		assert.Equal(t, "access-authorization_code", res.Token.AccessToken)
		assert.Equal(t, "refresh-new", res.Token.RefreshToken)
		assert.Equal(t, int64(4242), res.AthleteID)
		assert.True(t, res.Token.Expiry.After(time.Now()))
	})

	t.Run("missing code", func(t *testing.T) {
		before := atomic.LoadInt32(&calls)
		_, err := Exchange(context.Background(), cfg, "")
		assert.True(t, errors.Is(err, ErrMissingCode))
		assert.Equal(t, before, atomic.LoadInt32(&calls), "no request should be made")
	})

	t.Run("rejected code", func(t *testing.T) {
		_, err := Exchange(context.Background(), cfg, "bad-code")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exchanging code")
	})
}

func TestExtractAthleteID_NoAthlete(t *testing.T) {
	assert.Equal(t, int64(0), ExtractAthleteID(&oauth2.Token{AccessToken: "x"}))
}

func TestTokenSource(t *testing.T) {
	t.Run("valid token is reused", func(t *testing.T) {
		var calls int32
		srv := newTokenServer(t, &calls)
		token := &oauth2.Token{AccessToken: "current", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)}

		ts := NewTokenSource(testOAuthConfig(srv.URL), token, nil)
		got, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "current", got.AccessToken)
		assert.False(t, ts.IsExpired())
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("token inside buffer is refreshed and persisted", func(t *testing.T) {
		var calls int32
		srv := newTokenServer(t, &calls)
		token := &oauth2.Token{AccessToken: "old", RefreshToken: "r", Expiry: time.Now().Add(30 * time.Second)}

		var persisted *oauth2.Token
		ts := NewTokenSource(testOAuthConfig(srv.URL), token, func(tok *oauth2.Token) error {
			persisted = tok
			return nil
		})
		assert.True(t, ts.IsExpired())

		got, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "access-refresh_token", got.AccessToken)
		require.NotNil(t, persisted)
		assert.Equal(t, got.AccessToken, persisted.AccessToken)
		assert.Equal(t, got.AccessToken, ts.CurrentToken().AccessToken)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("persistence failure is returned", func(t *testing.T) {
		var calls int32
		srv := newTokenServer(t, &calls)
		token := &oauth2.Token{AccessToken: "old", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)}

		ts := NewTokenSource(testOAuthConfig(srv.URL), token, func(*oauth2.Token) error {
			return errors.New("disk full")
		})
		_, err := ts.Token()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, "old", ts.CurrentToken().AccessToken)
	})

	t.Run("expired token without refresh token", func(t *testing.T) {
		var calls int32
		srv := newTokenServer(t, &calls)
		token := &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}

		ts := NewTokenSource(testOAuthConfig(srv.URL), token, nil)
		_, err := ts.Token()
		assert.ErrorIs(t, err, ErrNoRefreshToken)
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("expiry is judged by the source clock", func(t *testing.T) {
		var calls int32
		srv := newTokenServer(t, &calls)
		expiry := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		token := &oauth2.Token{AccessToken: "old", RefreshToken: "r", Expiry: expiry}

		ts := NewTokenSource(testOAuthConfig(srv.URL), token, nil)
		ts.now = func() time.Time { return expiry.Add(-2 * refreshBuffer) }
		assert.False(t, ts.IsExpired())

		ts.now = func() time.Time { return expiry.Add(-refreshBuffer / 2) }
		assert.True(t, ts.IsExpired())

		got, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "access-refresh_token", got.AccessToken)
		assert.Equal(t, "refresh-new", got.RefreshToken)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestWaitForCode(t *testing.T) {
	start := func(t *testing.T, state string) (string, <-chan string, <-chan error) {
		t.Helper()
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		codes := make(chan string, 1)
		errs := make(chan error, 1)
		go func() {
			code, err := waitForCode(context.Background(), listener, state)
			codes <- code
			errs <- err
		}()
		return "http://" + listener.Addr().String() + "/callback", codes, errs
	}

	t.Run("code delivered", func(t *testing.T) {
		base, codes, errs := start(t, "s1")
		resp, err := http.Get(base + "?state=s1&code=abc")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, "abc", <-codes)
		assert.NoError(t, <-errs)
	})

	t.Run("state mismatch", func(t *testing.T) {
		base, codes, errs := start(t, "s2")
		resp, err := http.Get(base + "?state=other&code=abc")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		assert.Empty(t, <-codes)
		err = <-errs
		require.Error(t, err)
		assert.Contains(t, err.Error(), "state mismatch")
	})

	t.Run("denied", func(t *testing.T) {
		base, codes, errs := start(t, "s3")
		resp, err := http.Get(base + "?state=s3&error=access_denied")
		require.NoError(t, err)
		resp.Body.Close()

		<-codes
		err = <-errs
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access_denied")
	})

	t.Run("context cancelled", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = waitForCode(ctx, listener, "s4")
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
