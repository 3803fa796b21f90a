package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lorekeep/motif-engine/internal/engine"
	"github.com/lorekeep/motif-engine/internal/services"
	"github.com/lorekeep/motif-engine/pkg/motif"
	"github.com/lorekeep/motif-engine/pkg/textfilter"
)

// ContextHandler serves the narrative context endpoints AI consumers
// prompt with.
// Routes:
// GET  /v1/context           - Narrative context (x/y, region, or world)
// GET  /v1/context/enhanced  - Synthesized prompt text (size=small|medium|large)
// GET  /v1/context/gpt       - Prompt context (entity_id, size)
// GET  /v1/context/blend     - Dominant/contributing blend at a place
// GET  /v1/context/influence - Coarse influence reading
// POST /v1/narrate           - LLM-rendered narration for a place
type ContextHandler struct {
	manager *engine.Manager
	llm     services.LLMService
	filter  *textfilter.Filter // nil when the content rating allows raw output
	logger  *slog.Logger
}

func NewContextHandler(manager *engine.Manager, llm services.LLMService, filter *textfilter.Filter, logger *slog.Logger) *ContextHandler {
	return &ContextHandler{
		manager: manager,
		llm:     llm,
		filter:  filter,
		logger:  logger,
	}
}

// queryFromRequest reads the optional x/y and region params shared by
// every context endpoint.
func (h *ContextHandler) queryFromRequest(r *http.Request) (engine.ContextQuery, bool) {
	q := r.URL.Query()
	cq := engine.ContextQuery{RegionID: q.Get("region")}

	xs, ys := q.Get("x"), q.Get("y")
	if xs == "" && ys == "" {
		return cq, true
	}
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return cq, false
	}
	cq.X, cq.Y = &x, &y
	return cq, true
}

func (h *ContextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/narrate" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleNarrate(w, r)
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	switch r.URL.Path {
	case "/v1/context":
		h.handleNarrativeContext(w, r)
	case "/v1/context/enhanced":
		h.handleEnhanced(w, r)
	case "/v1/context/gpt":
		h.handleGPT(w, r)
	case "/v1/context/blend":
		h.handleBlend(w, r)
	case "/v1/context/influence":
		h.handleInfluence(w, r)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *ContextHandler) handleNarrativeContext(w http.ResponseWriter, r *http.Request) {
	cq, ok := h.queryFromRequest(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Query params x and y must both be numbers")
		return
	}

	nc, err := h.manager.NarrativeContext(r.Context(), cq)
	if err != nil {
		h.logger.Error("Failed to build narrative context", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to build narrative context")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, nc)
}

func (h *ContextHandler) handleEnhanced(w http.ResponseWriter, r *http.Request) {
	cq, ok := h.queryFromRequest(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Query params x and y must both be numbers")
		return
	}

	size := r.URL.Query().Get("size")
	switch size {
	case "", "small", "medium", "large":
	default:
		writeError(w, h.logger, http.StatusBadRequest, "Size must be small, medium, or large")
		return
	}
	if size == "" {
		size = "medium"
	}

	ec, err := h.manager.Service().EnhancedNarrativeContext(r.Context(), cq, size)
	if err != nil {
		h.logger.Error("Failed to build enhanced context", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to build enhanced context")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ec)
}

func (h *ContextHandler) handleGPT(w http.ResponseWriter, r *http.Request) {
	cq, ok := h.queryFromRequest(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Query params x and y must both be numbers")
		return
	}

	gc, err := h.manager.GPTContext(r.Context(), engine.GPTContextRequest{
		Query:    cq,
		EntityID: r.URL.Query().Get("entity_id"),
		Size:     r.URL.Query().Get("size"),
	})
	if err != nil {
		h.logger.Error("Failed to build GPT context", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to build prompt context")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gc)
}

func (h *ContextHandler) handleBlend(w http.ResponseWriter, r *http.Request) {
	cq, ok := h.queryFromRequest(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Query params x and y must both be numbers")
		return
	}

	_, motifs, err := h.manager.Service().MotifContext(r.Context(), cq)
	if err != nil {
		h.logger.Error("Failed to blend motifs", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to blend motifs")
		return
	}

	blend := motif.BlendMotifs(motifs)
	if blend == nil {
		writeJSON(w, h.logger, http.StatusOK, motif.Blend{ContributingNames: []string{}})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, blend)
}

func (h *ContextHandler) handleInfluence(w http.ResponseWriter, r *http.Request) {
	cq, ok := h.queryFromRequest(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Query params x and y must both be numbers")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.manager.Service().MotifNarrativeInfluence(r.Context(), cq))
}

func (h *ContextHandler) handleNarrate(w http.ResponseWriter, r *http.Request) {
	cq, ok := h.queryFromRequest(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Query params x and y must both be numbers")
		return
	}

	text, err := h.manager.GenerateNarration(r.Context(), h.llm, cq)
	if err != nil {
		h.logger.Error("Failed to generate narration", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to generate narration")
		return
	}
	if h.filter != nil {
		text = h.filter.Clean(text)
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"narration": text})
}
