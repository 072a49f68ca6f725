package web

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"runcoach/internal/analysis"
	"runcoach/internal/auth"
	"runcoach/internal/llm"
	"runcoach/internal/service"
	"runcoach/internal/store"
	"runcoach/internal/strava"
)

// errBadRequest marks malformed request bodies and query parameters
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %s", err)
	}
}

// writeError maps err to a status code and writes it as {"error": "..."}
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithField("request_id", RequestID(r.Context())).Errorf("%s %s: %s", r.Method, r.URL.Path, err)
		msg = "internal error"
	} else if status >= http.StatusBadGateway {
		log.WithField("request_id", RequestID(r.Context())).Warnf("%s %s: %s", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	var apiErr *strava.APIError
	var llmErr *llm.StatusError
	var oauthErr *oauth2.RetrieveError

	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, analysis.ErrInvalidFormat),
		errors.Is(err, analysis.ErrUnknownEvent),
		errors.Is(err, service.ErrInvalidPlanRequest),
		errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, auth.ErrMissingCode):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrActivityNotFound),
		errors.Is(err, store.ErrPlanNotFound),
		errors.Is(err, store.ErrNoReferencePerformance):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNoAuth),
		errors.Is(err, auth.ErrNoRefreshToken):
		return http.StatusConflict
	case errors.Is(err, llm.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr),
		errors.As(err, &llmErr),
		errors.As(err, &oauthErr),
		errors.Is(err, llm.ErrEmptyResponse),
		errors.Is(err, llm.ErrBadResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
