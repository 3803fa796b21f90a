package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lorekeep/motif-engine/internal/engine"
)

// SequenceHandler serves narrative arc generation and progression.
// Routes:
// POST /v1/sequences              - Generate a sequence
// GET  /v1/sequences              - List sequences
// GET  /v1/sequences/{id}         - Read a sequence with its motifs
// POST /v1/sequences/{id}/advance - Promote the next dormant member
type SequenceHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewSequenceHandler(manager *engine.Manager, logger *slog.Logger) *SequenceHandler {
	return &SequenceHandler{
		manager: manager,
		logger:  logger,
	}
}

func (h *SequenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sequences"), "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodPost:
			h.handleGenerate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
		}

	case strings.HasSuffix(path, "/advance"):
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleAdvance(w, r, strings.TrimSuffix(path, "/advance"))

	case !strings.Contains(path, "/"):
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
			return
		}
		h.handleRead(w, r, path)

	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SequenceHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req engine.SequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.manager.GenerateSequence(r.Context(), req)
	if err != nil {
		if strings.Contains(err.Error(), "sequence length") {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to generate sequence", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to generate sequence")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, res)
}

func (h *SequenceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	seqs, err := h.manager.ListSequences(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sequences", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list sequences")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, seqs)
}

func (h *SequenceHandler) handleRead(w http.ResponseWriter, r *http.Request, id string) {
	res, err := h.manager.GetSequence(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get sequence", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve sequence")
		return
	}
	if res == nil {
		writeError(w, h.logger, http.StatusNotFound, "Sequence not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

func (h *SequenceHandler) handleAdvance(w http.ResponseWriter, r *http.Request, id string) {
	seq, err := h.manager.GetSequence(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get sequence", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to advance sequence")
		return
	}
	if seq == nil {
		writeError(w, h.logger, http.StatusNotFound, "Sequence not found")
		return
	}

	m, err := h.manager.AdvanceSequence(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to advance sequence", "error", err, "id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to advance sequence")
		return
	}
	if m == nil {
		writeJSON(w, h.logger, http.StatusOK, map[string]any{"complete": true})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, m)
}
