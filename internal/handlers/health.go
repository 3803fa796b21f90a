package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lorekeep/motif-engine/internal/storage"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	repo   storage.Repository
	logger *slog.Logger
}

func NewHealthHandler(repo storage.Repository, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.repo.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	status := http.StatusOK
	if overallStatus != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, status, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now().UTC(),
		Service:    "motif-engine",
		Components: components,
	})
}
