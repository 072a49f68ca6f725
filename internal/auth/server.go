package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	// CallbackPort is the port for the local OAuth callback server
	CallbackPort = 8089
	// AuthTimeout is how long to wait for the runner to approve access
	AuthTimeout = 5 * time.Minute
)

// LocalRedirectURL is the redirect used by the terminal flow
var LocalRedirectURL = fmt.Sprintf("http://localhost:%d/callback", CallbackPort)

const successPage = `<!DOCTYPE html>
<html>
<head><title>runcoach connected</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1 style="color: #FC4C02;">Connected to Strava</h1>
<p>You can close this window and return to the terminal.</p>
</div>
</body>
</html>`

// Authenticate runs the OAuth flow with a local callback server.
// The authorize URL is written to out for the runner to open.
func Authenticate(ctx context.Context, cfg *oauth2.Config, out io.Writer) (*AuthResult, error) {
	state, err := NewState()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "To connect runcoach to Strava, open this URL in your browser:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", ConnectURL(cfg, state))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Waiting for authorization...")

	waitCtx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	code, err := waitForCode(waitCtx, listener, state)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("authentication timeout after %v", AuthTimeout)
	}
	if err != nil {
		return nil, err
	}

	return Exchange(ctx, cfg, code)
}

// waitForCode serves /callback on listener until a code arrives, an error
// is reported or ctx ends. The listener is closed on return.
func waitForCode(ctx context.Context, listener net.Listener, state string) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	report := func(err error) {
		select {
		case errChan <- err:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			report(errors.New("state mismatch - possible CSRF attack"))
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}

		if errMsg := q.Get("error"); errMsg != "" {
			report(fmt.Errorf("auth error: %s", errMsg))
			http.Error(w, "Authentication failed", http.StatusBadRequest)
			return
		}

		code := q.Get("code")
		if code == "" {
			report(ErrMissingCode)
			http.Error(w, "No authorization code", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, successPage)

		select {
		case codeChan <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			report(fmt.Errorf("server error: %w", err))
		}
	}()
	defer shutdownServer(server)

	select {
	case code := <-codeChan:
		return code, nil
	case err := <-errChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// shutdownServer gracefully shuts down the HTTP server
func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Debugf("callback server shutdown: %s", err)
	}
}
