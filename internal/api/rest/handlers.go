package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/clubsync/internal/ingest/site"
	"github.com/fortuna/clubsync/internal/registry"
	"github.com/fortuna/clubsync/internal/scheduler"
	"github.com/fortuna/clubsync/internal/service"
	"github.com/fortuna/clubsync/internal/store"
	"github.com/fortuna/clubsync/internal/store/repository"
)

// RunHistory reads past batch runs. Lookups of unknown runs return
// repository.ErrRunNotFound.
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]*store.SyncRun, error)
	Latest(ctx context.Context) (*store.SyncRun, error)
	GetByID(ctx context.Context, runID string) (*store.SyncRun, error)
}

// HealthChecker is a backing service whose readiness /health reports
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the collaborators of the API. Everything but Orchestrator is optional.
type Deps struct {
	Orchestrator *scheduler.Orchestrator
	Cron         *scheduler.Cron
	Cache        service.SnapshotCache
	History      RunHistory
	SnapshotTTL  time.Duration
	// Checks maps a backing service name to its health check
	Checks map[string]HealthChecker
	// Background is the context of syncs started by the API that outlive the request
	Background context.Context
}

// Handler contains all HTTP handlers
type Handler struct {
	deps  Deps
	clubs *service.ClubService
}

// NewHandler creates a new handler
func NewHandler(deps Deps) *Handler {
	if deps.Background == nil {
		deps.Background = context.Background()
	}
	return &Handler{
		deps:  deps,
		clubs: service.NewClubService(deps.Orchestrator.Ingester(), deps.Cache, deps.SnapshotTTL),
	}
}

// HealthCheck reports API health and the readiness of each backing service.
// Any failing dependency turns the response into a 503.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.deps.Checks))
	for name, checker := range h.deps.Checks {
		if err := checker.HealthCheck(r.Context()); err != nil {
			log.Warn().Err(err).Str("dependency", name).Msg("health check failed")
			checks[name] = "unavailable: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       overall,
		"service":      "clubsync",
		"dependencies": checks,
	})
}

// SearchClubs finds clubs on the results site by name
func (h *Handler) SearchClubs(w http.ResponseWriter, r *http.Request) {
	results, err := h.clubs.Search(r.Context(), r.URL.Query().Get("q"))
	if errors.Is(err, service.ErrQueryTooShort) {
		respondError(w, http.StatusBadRequest, "Query must be at least 2 characters", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to search clubs", err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// GetClubDetails returns the header of a club page
func (h *Handler) GetClubDetails(w http.ResponseWriter, r *http.Request) {
	clubURL, ok := clubURLParam(w, r)
	if !ok {
		return
	}

	details, err := h.clubs.Details(r.Context(), clubURL)
	if err != nil {
		respondFetchError(w, "Failed to fetch club details", err)
		return
	}

	respondJSON(w, http.StatusOK, details)
}

// GetLeagueTable returns the league table of a club
func (h *Handler) GetLeagueTable(w http.ResponseWriter, r *http.Request) {
	clubURL, ok := clubURLParam(w, r)
	if !ok {
		return
	}

	table, err := h.clubs.Table(r.Context(), clubURL)
	if err != nil {
		respondFetchError(w, "Failed to fetch league table", err)
		return
	}

	respondJSON(w, http.StatusOK, table)
}

// GetMatchSchedule returns the fixtures of a club
func (h *Handler) GetMatchSchedule(w http.ResponseWriter, r *http.Request) {
	clubURL, ok := clubURLParam(w, r)
	if !ok {
		return
	}

	schedule, err := h.clubs.Schedule(r.Context(), clubURL)
	if err != nil {
		respondFetchError(w, "Failed to fetch match schedule", err)
		return
	}

	respondJSON(w, http.StatusOK, schedule)
}

// GetClubSnapshot returns details, table and schedule in one response
func (h *Handler) GetClubSnapshot(w http.ResponseWriter, r *http.Request) {
	clubURL, ok := clubURLParam(w, r)
	if !ok {
		return
	}

	snapshot, hit, err := h.clubs.Snapshot(r.Context(), clubURL)
	if err != nil {
		respondFetchError(w, "Failed to fetch club pages", err)
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// ListRegistrations returns every registration
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.deps.Orchestrator.Registry().List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list registrations", err)
		return
	}

	respondJSON(w, http.StatusOK, regs)
}

// GetRegistration returns the sync status of one club
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(w, r)
	if !ok {
		return
	}

	reg, err := h.deps.Orchestrator.Registry().Get(r.Context(), clubID)
	if errors.Is(err, registry.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Club not registered", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch registration", err)
		return
	}

	respondJSON(w, http.StatusOK, reg)
}

type registrationRequest struct {
	ExternalURL string `json:"external_url"`
	SyncEnabled *bool  `json:"sync_enabled"`
}

// PutRegistration links a club to its results page, replacing any previous link
func (h *Handler) PutRegistration(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(w, r)
	if !ok {
		return
	}

	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !validClubURL(req.ExternalURL) {
		respondError(w, http.StatusBadRequest, "external_url must be an absolute http(s) URL", nil)
		return
	}

	enabled := true
	if req.SyncEnabled != nil {
		enabled = *req.SyncEnabled
	}

	reg := h.deps.Orchestrator.Registry()
	err := reg.Register(r.Context(), registry.Registration{
		ClubID:      clubID,
		ExternalURL: req.ExternalURL,
		SyncEnabled: enabled,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to register club", err)
		return
	}

	saved, err := reg.Get(r.Context(), clubID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch registration", err)
		return
	}

	respondJSON(w, http.StatusOK, saved)
}

// DeleteRegistration unlinks a club; unlinking an unknown club succeeds
func (h *Handler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(w, r)
	if !ok {
		return
	}

	if err := h.deps.Orchestrator.Registry().Unregister(r.Context(), clubID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to unregister club", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SyncClub syncs one club now and returns the outcome with the fetched snapshot
func (h *Handler) SyncClub(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(w, r)
	if !ok {
		return
	}

	result := h.deps.Orchestrator.SyncClub(r.Context(), clubID)

	status := http.StatusOK
	switch {
	case result.Success:
	case errors.Is(result.Err, scheduler.ErrNotRegistered):
		status = http.StatusNotFound
	case errors.Is(result.Err, scheduler.ErrSyncDisabled):
		status = http.StatusConflict
	default:
		status = http.StatusBadGateway
	}

	respondJSON(w, status, result)
}

// RunSync starts a full batch in the background
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	go h.deps.Orchestrator.ProcessDailySync(h.deps.Background, store.TriggerManual)

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// SyncStatus reports the cron state and the last batch. Before this process
// has run a batch, the last recorded run stands in for it.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"cron_running":   false,
		"cron_interval":  "",
		"last_batch":     h.lastBatch(r.Context()),
		"reconciliation": h.deps.Orchestrator.Metrics(),
	}
	if h.deps.Cron != nil {
		status["cron_running"] = h.deps.Cron.Running()
		if interval := h.deps.Cron.Interval(); interval > 0 {
			status["cron_interval"] = interval.String()
		}
	}

	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) lastBatch(ctx context.Context) interface{} {
	if batch := h.deps.Orchestrator.LastBatch(); batch != nil {
		return batch
	}
	if h.deps.History == nil {
		return nil
	}

	run, err := h.deps.History.Latest(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrRunNotFound) {
			log.Warn().Err(err).Msg("failed to read latest sync run")
		}
		return nil
	}
	return run
}

// ListRuns returns recent batch history
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		respondError(w, http.StatusNotFound, "Run history is not enabled", nil)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	runs, err := h.deps.History.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch sync runs", err)
		return
	}
	if runs == nil {
		runs = []*store.SyncRun{}
	}

	respondJSON(w, http.StatusOK, runs)
}

// GetRun returns one recorded batch run
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		respondError(w, http.StatusNotFound, "Run history is not enabled", nil)
		return
	}

	runID := mux.Vars(r)["runID"]
	if _, err := uuid.Parse(runID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run ID", err)
		return
	}

	run, err := h.deps.History.GetByID(r.Context(), runID)
	if errors.Is(err, repository.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Sync run not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch sync run", err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func clubIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	clubID, err := strconv.ParseInt(mux.Vars(r)["clubID"], 10, 64)
	if err != nil || clubID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid club ID", err)
		return 0, false
	}
	return clubID, true
}

func clubURLParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	clubURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if !validClubURL(clubURL) {
		respondError(w, http.StatusBadRequest, "url must be an absolute http(s) URL", nil)
		return "", false
	}
	return clubURL, true
}

func validClubURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// respondFetchError maps site failures to 502, or 404 when the site says so
func respondFetchError(w http.ResponseWriter, message string, err error) {
	status := http.StatusBadGateway
	if fe, ok := site.AsFetchError(err); ok && fe.StatusCode == http.StatusNotFound {
		status = http.StatusNotFound
	}
	respondError(w, status, message, err)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}
