package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/vidgrab/internal/repository"
	"github.com/iconidentify/vidgrab/internal/service"
)

var startTime = time.Now()

// StorageStatser reports downloads volume statistics.
type StorageStatser interface {
	Stats(ctx context.Context) (*service.StorageStats, error)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	jobRepo repository.JobRepository
	storage StorageStatser
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(jobRepo repository.JobRepository, storage StorageStatser, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		jobRepo: jobRepo,
		storage: storage,
		logger:  logger.With("component", "health_handler"),
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Jobs      *repository.QueueStats `json:"jobs,omitempty"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.jobRepo.Stats(ctx)
	if err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Jobs:      stats,
	})
}

// SystemStats contains process and storage statistics.
type SystemStats struct {
	*service.StorageStats
	Uptime        int64  `json:"uptime_seconds"`
	UptimeHuman   string `json:"uptime_human"`
	FilesHuman    string `json:"files_human"`
	DiskFreeHuman string `json:"disk_free_human"`
}

// Stats handles GET /stats.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	storage, err := h.storage.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to collect stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}

	uptime := time.Since(startTime)
	writeJSON(w, http.StatusOK, SystemStats{
		StorageStats:  storage,
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		FilesHuman:    humanize.Bytes(uint64(storage.FilesBytes)),
		DiskFreeHuman: humanize.Bytes(storage.DiskFreeBytes),
	})
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
