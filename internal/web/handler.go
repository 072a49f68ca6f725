package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"runcoach/internal/auth"
	"runcoach/internal/service"
)

const maxBodyBytes = 1 << 20

// Services are the application services the API exposes
type Services struct {
	Paces   *service.PaceService
	Profile *service.ProfileService
	Query   *service.QueryService
	Plans   *service.PlanService
	Strava  *service.StravaConnector
}

type Handler struct {
	services Services
	metrics  *Metrics
}

func NewHandler(services Services, metrics *Metrics) *Handler {
	return &Handler{services: services, metrics: metrics}
}

// SetupRoutes registers the JSON API on r. Routes sit on r itself so a
// method mismatch still answers 405 next to the server's own routes.
func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/paces", h.handleGetPaces).Methods("GET").Name("paces")
	r.HandleFunc("/api/paces", h.handleSavePaces).Methods("POST").Name("paces-save")
	r.HandleFunc("/api/profile", h.handleGetProfile).Methods("GET").Name("profile")
	r.HandleFunc("/api/profile", h.handleUpdateProfile).Methods("PUT").Name("profile-update")
	r.HandleFunc("/api/strava/connect", h.handleStravaConnect).Methods("GET").Name("strava-connect")
	r.HandleFunc("/api/strava/status", h.handleStravaStatus).Methods("GET").Name("strava-status")
	r.HandleFunc("/api/strava-token", h.handleStravaToken).Methods("POST").Name("strava-token")
	r.HandleFunc("/api/strava/sync", h.handleStravaSync).Methods("POST").Name("strava-sync")
	r.HandleFunc("/api/dashboard", h.handleDashboard).Methods("GET").Name("dashboard")
	r.HandleFunc("/api/activities", h.handleListActivities).Methods("GET").Name("activities")
	r.HandleFunc("/api/activities/{id:[0-9]+}", h.handleGetActivity).Methods("GET").Name("activity")
	r.HandleFunc("/api/plan", h.handleGeneratePlan).Methods("POST").Name("plan")
	r.HandleFunc("/api/plans", h.handleListPlans).Methods("GET").Name("plans")
	r.HandleFunc("/api/plans/latest", h.handleLatestPlan).Methods("GET").Name("plan-latest")
}

type paceRequest struct {
	Event string `json:"event"`
	Time  string `json:"time"`
}

func (h *Handler) handleGetPaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.services.Paces.Calculate(q.Get("event"), q.Get("time"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.CounterPaceCalculations.Inc()
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleSavePaces(w http.ResponseWriter, r *http.Request) {
	var req paceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.services.Paces.CalculateAndSave(req.Event, req.Time)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.CounterPaceCalculations.Inc()
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.services.Profile.Get()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update service.ProfileUpdate
	if err := decodeBody(r, &update); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.services.Profile.Update(update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleStravaConnect(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, h.services.Strava.ConnectURL(state), http.StatusFound)
}

func (h *Handler) handleStravaStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.services.Strava.Status()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type tokenRequest struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	AthleteID int64     `json:"athlete_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleStravaToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	stored, err := h.services.Strava.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AthleteID: stored.AthleteID, ExpiresAt: stored.ExpiresAt})
}

func (h *Handler) handleStravaSync(w http.ResponseWriter, r *http.Request) {
	perPage, err := intParam(r, "per_page", service.DefaultSyncPerPage)
	if err != nil {
		writeError(w, r, err)
		return
	}

	syncer, err := h.services.Strava.Sync()
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := syncer.SyncLatest(r.Context(), perPage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.CounterRunsSynced.Add(float64(result.RunsStored))

	resp := struct {
		*service.SyncResult
		Errors []string `json:"errors,omitempty"`
	}{SyncResult: result}
	for _, e := range result.Errors() {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.services.Query.GetDashboardData()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", service.DefaultListLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	activities, err := h.services.Query.ListActivities(limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *Handler) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid activity id", errBadRequest))
		return
	}

	activity, err := h.services.Query.GetActivity(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *Handler) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var in service.PlanInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.services.Plans.Generate(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.CounterPlansGenerated.Inc()
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", service.DefaultListLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	plans, err := h.services.Plans.History(limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *Handler) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.services.Plans.Latest()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if _, err := io.WriteString(w, "ok"); err != nil {
		log.Errorf("failed to write health response: %s", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, name)
	}
	return n, nil
}
