package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/ratingsync"
	"github.com/fortuna/tradedesk/internal/reconciliation"
	"github.com/fortuna/tradedesk/internal/service"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/teams"
	"github.com/fortuna/tradedesk/internal/trade"
)

const maxTradeBytes = 64 << 10

// TradeAPI is the trade service as used by the handlers.
type TradeAPI interface {
	Parse(ctx context.Context, text string) (*trade.ParsedTrade, error)
	Apply(ctx context.Context, messageID, text string) (*service.ApplyResult, error)
	Get(ctx context.Context, messageID string) (*store.TradeRecord, error)
}

// RosterAPI is the roster service as used by the handlers.
type RosterAPI interface {
	Resolver(ctx context.Context) (*teams.Resolver, error)
	TeamAliases(ctx context.Context) ([]*store.TeamAlias, error)
	AddTeamAlias(ctx context.Context, alias, canonical, createdBy string) (*store.TeamAlias, error)
	Reconcile(ctx context.Context, query string) (reconciliation.MatchResult, error)
}

// PlayerAPI is the player service as used by the handlers.
type PlayerAPI interface {
	GetPlayer(ctx context.Context, playerID int) (*store.Player, error)
	GetTeamRoster(ctx context.Context, rawTeam string) (*service.TeamRoster, error)
}

// SyncAPI queues and reports rating sync runs.
type SyncAPI interface {
	Enqueue(ctx context.Context, req ratingsync.Request) (*ratingsync.Run, error)
	GetStatus(ctx context.Context) (*ratingsync.StatusSummary, error)
}

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// Deps are the services behind the API.
type Deps struct {
	Trades  TradeAPI
	Roster  RosterAPI
	Players PlayerAPI
	Sync    SyncAPI
	Health  map[string]HealthCheck
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	deps   Deps
	logger logrus.FieldLogger
}

// NewHandler creates a new handler
func NewHandler(deps Deps, logger logrus.FieldLogger) *Handler {
	return &Handler{deps: deps, logger: logger}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.deps.Health))
	for name, check := range h.deps.Health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
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
		"status":  overall,
		"service": "tradedesk",
		"checks":  checks,
	})
}

type tradeRequest struct {
	Text string `json:"text"`
}

// readTradeText accepts either {"text": "..."} or a raw text body.
func readTradeText(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTradeBytes+1))
	if err != nil {
		return "", err
	}
	if len(body) > maxTradeBytes {
		return "", fmt.Errorf("trade text exceeds %d bytes", maxTradeBytes)
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req tradeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", err
		}
		return req.Text, nil
	}
	return string(body), nil
}

// ParseTrade parses a trade post without side effects. Parse problems are
// part of the 200 response.
func (h *Handler) ParseTrade(w http.ResponseWriter, r *http.Request) {
	text, err := readTradeText(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	parsed, err := h.deps.Trades.Parse(r.Context(), text)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to parse trade", err)
		return
	}

	respondJSON(w, http.StatusOK, parsed)
}

// ApplyTrade parses and applies a trade exactly once per message id
func (h *Handler) ApplyTrade(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["messageID"]

	text, err := readTradeText(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.deps.Trades.Apply(r.Context(), messageID, text)
	if err != nil {
		h.logger.WithError(err).WithField("message_id", messageID).Error("apply trade failed")
		respondError(w, errorStatus(err), "Failed to apply trade", err)
		return
	}

	status := http.StatusOK
	switch {
	case result.Applied:
		status = http.StatusCreated
	case !result.Duplicate:
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, result)
}

// GetTrade returns the ledger entry for a message id
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.Trades.Get(r.Context(), mux.Vars(r)["messageID"])
	if err != nil {
		respondError(w, errorStatus(err), "Failed to fetch trade", err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

type teamPayload struct {
	Name    teams.Name `json:"name"`
	Aliases []string   `json:"aliases"`
}

// GetTeams lists the canonical teams with every accepted alias
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	resolver, err := h.deps.Roster.Resolver(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load team aliases", err)
		return
	}

	byTeam := make(map[teams.Name][]string)
	for alias, name := range resolver.Aliases() {
		byTeam[name] = append(byTeam[name], alias)
	}

	out := make([]teamPayload, 0, len(teams.Canonical))
	for _, name := range teams.Canonical {
		aliases := byTeam[name]
		sort.Strings(aliases)
		if aliases == nil {
			aliases = []string{}
		}
		out = append(out, teamPayload{Name: name, Aliases: aliases})
	}

	respondJSON(w, http.StatusOK, out)
}

// ResolveTeam resolves one spelling. A miss is reported, not an error.
func (h *Handler) ResolveTeam(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("name")
	if strings.TrimSpace(query) == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'name' is required", nil)
		return
	}

	resolver, err := h.deps.Roster.Resolver(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load team aliases", err)
		return
	}

	response := map[string]interface{}{
		"query":    query,
		"resolved": false,
		"team":     nil,
	}
	if team, ok := resolver.Resolve(query); ok {
		response["resolved"] = true
		response["team"] = team
	}
	respondJSON(w, http.StatusOK, response)
}

// GetTeamRoster returns the players of a team, by any accepted spelling
func (h *Handler) GetTeamRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.deps.Players.GetTeamRoster(r.Context(), mux.Vars(r)["team"])
	if err != nil {
		respondError(w, errorStatus(err), "Failed to fetch team roster", err)
		return
	}

	respondJSON(w, http.StatusOK, roster)
}

// GetTeamAliases lists stored team aliases
func (h *Handler) GetTeamAliases(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.deps.Roster.TeamAliases(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch team aliases", err)
		return
	}
	if aliases == nil {
		aliases = []*store.TeamAlias{}
	}

	respondJSON(w, http.StatusOK, aliases)
}

type teamAliasRequest struct {
	Alias     string `json:"alias"`
	Team      string `json:"team"`
	CreatedBy string `json:"created_by"`
}

// CreateTeamAlias adds a team alias; aliases that contradict the table are
// rejected
func (h *Handler) CreateTeamAlias(w http.ResponseWriter, r *http.Request) {
	var req teamAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	alias, err := h.deps.Roster.AddTeamAlias(r.Context(), req.Alias, req.Team, req.CreatedBy)
	if err != nil {
		respondError(w, errorStatus(err), "Failed to add team alias", err)
		return
	}

	respondJSON(w, http.StatusCreated, alias)
}

type reconcileRequest struct {
	Name string `json:"name"`
}

// ReconcilePlayer matches an external player name against the roster
func (h *Handler) ReconcilePlayer(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Field 'name' is required", nil)
		return
	}

	result, err := h.deps.Roster.Reconcile(r.Context(), req.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to reconcile player", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetPlayer returns a roster player by ID
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(mux.Vars(r)["playerID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player ID", err)
		return
	}

	player, err := h.deps.Players.GetPlayer(r.Context(), playerID)
	if err != nil {
		respondError(w, errorStatus(err), "Failed to fetch player", err)
		return
	}

	respondJSON(w, http.StatusOK, player)
}

// errorStatus maps store sentinels to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrDuplicateKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
