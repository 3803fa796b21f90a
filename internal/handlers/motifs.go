package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lorekeep/motif-engine/internal/engine"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

type MotifHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewMotifHandler(manager *engine.Manager, logger *slog.Logger) *MotifHandler {
	return &MotifHandler{
		manager: manager,
		logger:  logger,
	}
}

// ServeHTTP handles motif CRUD and generation.
// Routes:
// POST /v1/motifs               - Create a motif
// GET  /v1/motifs               - List motifs (query params filter)
// POST /v1/motifs/generate      - Generate a random motif
// GET  /v1/motifs/{id}          - Read a motif
// PATCH /v1/motifs/{id}         - Update a motif
// DELETE /v1/motifs/{id}        - Delete a motif
// POST /v1/motifs/{id}/advance  - Force one lifecycle step
func (h *MotifHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/motifs"), "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
		}

	case path == "generate":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleGenerate(w, r)

	case strings.HasSuffix(path, "/advance"):
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleAdvance(w, r, strings.TrimSuffix(path, "/advance"))

	case !strings.Contains(path, "/"):
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, path)
		case http.MethodPatch:
			h.handlePatch(w, r, path)
		case http.MethodDelete:
			h.handleDelete(w, r, path)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PATCH, DELETE")
		}

	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *MotifHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req motif.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid motif create request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.manager.CreateMotif(r.Context(), &req)
	if err != nil {
		if strings.HasPrefix(err.Error(), "invalid motif") {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to create motif", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create motif")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, m)
}

// handleList supports category, scope, lifecycle, region, min_intensity
// and active query params.
func (h *MotifHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f motif.Filter

	if v := q.Get("category"); v != "" {
		c, err := motif.ParseCategory(v)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		f.Category = c
	}
	if v := q.Get("scope"); v != "" {
		s, err := motif.ParseScope(v)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		f.Scopes = []motif.Scope{s}
	}
	if v := q.Get("lifecycle"); v != "" {
		l, err := motif.ParseLifecycle(v)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		f.Lifecycles = []motif.Lifecycle{l}
	}
	if v := q.Get("region"); v != "" {
		f.RegionID = v
	}
	if v := q.Get("min_intensity"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid min_intensity")
			return
		}
		f.MinIntensity = &min
	}
	if q.Get("active") == "true" {
		f.ActiveOnly = true
	}

	motifs, err := h.manager.GetMotifs(r.Context(), &f)
	if err != nil {
		h.logger.Error("Failed to list motifs", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list motifs")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, motifs)
}

func (h *MotifHandler) handleRead(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.manager.GetMotif(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get motif", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve motif")
		return
	}
	if m == nil {
		writeError(w, h.logger, http.StatusNotFound, "Motif not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, m)
}

func (h *MotifHandler) handlePatch(w http.ResponseWriter, r *http.Request, id string) {
	var upd motif.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.manager.UpdateMotif(r.Context(), id, &upd)
	if err != nil {
		h.logger.Error("Failed to update motif", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to update motif")
		return
	}
	if m == nil {
		writeError(w, h.logger, http.StatusNotFound, "Motif not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, m)
}

func (h *MotifHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	existed, err := h.manager.DeleteMotif(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete motif", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete motif")
		return
	}
	if !existed {
		writeError(w, h.logger, http.StatusNotFound, "Motif not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	Category  motif.Category  `json:"category,omitempty"`
	Scope     motif.Scope     `json:"scope,omitempty"`
	Location  *motif.Location `json:"location,omitempty"`
	Intensity [2]float64      `json:"intensity_range,omitempty"`
}

func (h *MotifHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	m, err := h.manager.GenerateRandomMotif(r.Context(), engine.RandomMotifOptions{
		Category:       req.Category,
		Scope:          req.Scope,
		Location:       req.Location,
		IntensityRange: req.Intensity,
	})
	if err != nil {
		if strings.HasPrefix(err.Error(), "invalid motif") {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to generate motif", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to generate motif")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, m)
}

func (h *MotifHandler) handleAdvance(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Motif ID is required")
		return
	}

	m, err := h.manager.AdvanceMotif(r.Context(), id, true)
	if err != nil {
		h.logger.Error("Failed to advance motif", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to advance motif")
		return
	}
	if m == nil {
		// Either the motif is missing or it is already dormant;
		// distinguish for the caller.
		existing, err := h.manager.GetMotif(r.Context(), id)
		if err != nil {
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to advance motif")
			return
		}
		if existing == nil {
			writeError(w, h.logger, http.StatusNotFound, "Motif not found")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, existing)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, m)
}
