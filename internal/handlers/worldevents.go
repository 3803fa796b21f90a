package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lorekeep/motif-engine/internal/engine"
)

// WorldEventHandler serves the world event log.
// Routes:
// POST /v1/events - Generate a motif-driven world event
// GET  /v1/events - Page through the world log (limit, offset)
type WorldEventHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewWorldEventHandler(manager *engine.Manager, logger *slog.Logger) *WorldEventHandler {
	return &WorldEventHandler{
		manager: manager,
		logger:  logger,
	}
}

func (h *WorldEventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleGenerate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
	}
}

type generateEventRequest struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	RegionID string   `json:"region_id,omitempty"`
	Type     string   `json:"type,omitempty"`
}

func (h *WorldEventHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateEventRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if (req.X == nil) != (req.Y == nil) {
		writeError(w, h.logger, http.StatusBadRequest, "x and y must be provided together")
		return
	}

	got, err := h.manager.GenerateWorldEvent(r.Context(), engine.WorldEventRequest{
		X: req.X, Y: req.Y,
		RegionID: req.RegionID,
		Type:     req.Type,
	})
	if err != nil {
		h.logger.Error("Failed to generate world event", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to generate world event")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, got)
}

func (h *WorldEventHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := 10, 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid offset")
			return
		}
		offset = n
	}

	events, err := h.manager.WorldEvents(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list world events", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list world events")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, events)
}
