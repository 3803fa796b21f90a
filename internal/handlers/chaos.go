package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lorekeep/motif-engine/internal/engine"
)

// ChaosHandler serves the chaos event surface.
// Routes:
// POST /v1/chaos/roll              - Roll a chaos event type without injecting
// POST /v1/chaos/inject            - Inject a chaos event into the world log
// POST /v1/chaos/trigger/{entity}  - Trigger chaos if the entity's pressure warrants
// POST /v1/chaos/force/{entity}    - Force chaos onto an entity
// GET  /v1/chaos/log               - Recent chaos events
type ChaosHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewChaosHandler(manager *engine.Manager, logger *slog.Logger) *ChaosHandler {
	return &ChaosHandler{
		manager: manager,
		logger:  logger,
	}
}

func (h *ChaosHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/chaos"), "/")

	switch {
	case path == "roll" && r.Method == http.MethodPost:
		writeJSON(w, h.logger, http.StatusOK, map[string]string{"event_type": h.manager.RollChaosEvent()})

	case path == "inject" && r.Method == http.MethodPost:
		h.handleInject(w, r)

	case strings.HasPrefix(path, "trigger/") && r.Method == http.MethodPost:
		h.handleTrigger(w, r, strings.TrimPrefix(path, "trigger/"))

	case strings.HasPrefix(path, "force/") && r.Method == http.MethodPost:
		h.handleForce(w, r, strings.TrimPrefix(path, "force/"))

	case path == "log" && r.Method == http.MethodGet:
		h.handleLog(w, r)

	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

type injectRequest struct {
	EventType string         `json:"event_type"`
	RegionID  string         `json:"region_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

func (h *ChaosHandler) handleInject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EventType == "" {
		req.EventType = h.manager.RollChaosEvent()
	}

	ev, err := h.manager.InjectChaosEvent(r.Context(), req.EventType, req.RegionID, req.Context)
	if err != nil {
		h.logger.Error("Failed to inject chaos event", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to inject chaos event")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, ev)
}

func (h *ChaosHandler) handleTrigger(w http.ResponseWriter, r *http.Request, entityID string) {
	if entityID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Entity ID is required")
		return
	}

	res, err := h.manager.TriggerChaosIfNeeded(r.Context(), entityID, r.URL.Query().Get("region"))
	if err != nil {
		h.logger.Error("Failed to run chaos trigger check", "error", err, "entity_id", entityID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to check chaos triggers")
		return
	}
	if res.Message == "Entity not found" {
		writeError(w, h.logger, http.StatusNotFound, res.Message)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

func (h *ChaosHandler) handleForce(w http.ResponseWriter, r *http.Request, entityID string) {
	if entityID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Entity ID is required")
		return
	}

	res, err := h.manager.ForceChaos(r.Context(), entityID, r.URL.Query().Get("region"))
	if err != nil {
		h.logger.Error("Failed to force chaos", "error", err, "entity_id", entityID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to force chaos")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

func (h *ChaosHandler) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := h.manager.ChaosLog(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read chaos log", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to read chaos log")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, events)
}
