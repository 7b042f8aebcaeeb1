package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fortuna/tradedesk/internal/ratingsync"
)

// RatingsHandler proxies API calls to the rating sync service.
type RatingsHandler struct {
	service SyncAPI
}

// NewRatingsHandler wires the REST layer to the rating sync service.
func NewRatingsHandler(service SyncAPI) *RatingsHandler {
	return &RatingsHandler{service: service}
}

type apiSyncRequest struct {
	Teams  []string `json:"teams"`
	Floor  *int     `json:"floor"`
	DryRun bool     `json:"dry_run"`
}

// HandleSyncRequest handles POST /api/v1/ratings/sync
func (h *RatingsHandler) HandleSyncRequest(w http.ResponseWriter, r *http.Request) {
	var req apiSyncRequest
	// An empty body syncs every team with the default floor.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	run, err := h.service.Enqueue(r.Context(), ratingsync.Request{
		Teams:  req.Teams,
		Floor:  req.Floor,
		DryRun: req.DryRun,
	})
	if err != nil {
		respondError(w, errorStatus(err), "Failed to enqueue rating sync", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"run": runPayload(run),
	})
}

// HandleSyncStatus handles GET /api/v1/ratings/sync/status
func (h *RatingsHandler) HandleSyncStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

func buildStatusPayload(summary *ratingsync.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active runs",
	}

	if summary.ActiveRun != nil {
		response["status"] = summary.ActiveRun.Status
		if summary.ActiveRun.StatusMessage.Valid {
			response["message"] = summary.ActiveRun.StatusMessage.String
		}
		response["active_run"] = runPayload(summary.ActiveRun)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, run := range summary.History {
		history = append(history, runPayload(run))
	}

	response["history"] = history
	return response
}

func runPayload(run *ratingsync.Run) map[string]interface{} {
	if run == nil {
		return nil
	}

	teams := []string(run.Teams)
	if teams == nil {
		teams = []string{}
	}

	payload := map[string]interface{}{
		"run_id":           run.RunID,
		"teams":            teams,
		"rating_floor":     run.RatingFloor,
		"dry_run":          run.DryRun,
		"status":           run.Status,
		"progress_current": run.ProgressCurrent,
		"progress_total":   run.ProgressTotal,
		"counts": map[string]int{
			"exact":     run.ExactCount,
			"alias":     run.AliasCount,
			"fuzzy":     run.FuzzyCount,
			"unmatched": run.UnmatchedCount,
			"updated":   run.UpdatedCount,
		},
		"created_at": run.CreatedAt,
		"updated_at": run.UpdatedAt,
	}

	if run.StatusMessage.Valid {
		payload["status_message"] = run.StatusMessage.String
	}
	if run.StartedAt.Valid {
		payload["started_at"] = run.StartedAt.Time
	}
	if run.CompletedAt.Valid {
		payload["completed_at"] = run.CompletedAt.Time
	}
	if run.LastError.Valid {
		payload["last_error"] = run.LastError.String
	}

	return payload
}
