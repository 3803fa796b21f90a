package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lorekeep/motif-engine/internal/engine"
)

// RegionHandler serves region registration and summaries.
// Routes:
// POST /v1/regions              - Register a region (reconciled immediately)
// GET  /v1/regions              - List known regions
// GET  /v1/regions/{id}/summary - Aggregate motif pressure in a region
// POST /v1/lifecycle/tick       - Run one lifecycle sweep on demand
type RegionHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewRegionHandler(manager *engine.Manager, logger *slog.Logger) *RegionHandler {
	return &RegionHandler{
		manager: manager,
		logger:  logger,
	}
}

func (h *RegionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/lifecycle/tick" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleTick(w, r)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/regions"), "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodPost:
			h.handleRegister(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
		}

	case strings.HasSuffix(path, "/summary"):
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
			return
		}
		regionID := strings.TrimSuffix(path, "/summary")
		writeJSON(w, h.logger, http.StatusOK, h.manager.Service().MotifSummaryForRegion(r.Context(), regionID))

	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

type registerRegionRequest struct {
	RegionID string `json:"region_id"`
}

func (h *RegionHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.RegionID) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "region_id is required")
		return
	}

	if err := h.manager.RegisterRegion(r.Context(), req.RegionID); err != nil {
		h.logger.Error("Failed to register region", "error", err, "region", req.RegionID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to register region")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, map[string]string{"region_id": req.RegionID})
}

func (h *RegionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	regions, err := h.manager.Service().Regions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list regions", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list regions")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, regions)
}

func (h *RegionHandler) handleTick(w http.ResponseWriter, r *http.Request) {
	res, err := h.manager.RunLifecycleTick(r.Context())
	if err != nil {
		h.logger.Error("Lifecycle tick failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Lifecycle tick failed")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}
