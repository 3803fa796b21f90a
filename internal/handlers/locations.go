package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lorekeep/motif-engine/internal/engine"
)

// LocationHandler serves the spatial influence queries.
// Routes:
// GET /v1/locations/motifs?x=&y=   - Distance-decayed influence at a point
// GET /v1/locations/dominant?limit= - Strongest established motifs
type LocationHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewLocationHandler(manager *engine.Manager, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{
		manager: manager,
		logger:  logger,
	}
}

func (h *LocationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	switch r.URL.Path {
	case "/v1/locations/motifs":
		h.handleMotifs(w, r)
	case "/v1/locations/dominant":
		h.handleDominant(w, r)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *LocationHandler) handleMotifs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Query params x and y are required numbers")
		return
	}

	spreads, err := h.manager.MotifsByLocation(r.Context(), x, y)
	if err != nil {
		h.logger.Error("Failed to compute motif spread", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to compute motif influence")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, spreads)
}

func (h *LocationHandler) handleDominant(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	motifs, err := h.manager.DominantMotifs(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list dominant motifs", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list dominant motifs")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, motifs)
}
