package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/internal/repository"
	"github.com/iconidentify/vidgrab/internal/service"
)

// failingStatsRepo fails every Stats call.
type failingStatsRepo struct {
	repository.JobRepository
}

func (failingStatsRepo) Stats(ctx context.Context) (*repository.QueueStats, error) {
	return nil, errors.New("unavailable")
}

func TestHealthHandler_Live(t *testing.T) {
	handler := NewHealthHandler(repository.NewInMemoryJobRepository(10), &fakeStorage{}, testLogger())

	w := httptest.NewRecorder()
	handler.Live(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Timestamp == "" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Jobs != nil {
		t.Error("liveness should not report jobs")
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	repo := repository.NewInMemoryJobRepository(10)
	ctx := context.Background()
	for _, id := range []domain.JobID{"dl_1", "dl_2", "dl_3"} {
		repo.Enqueue(ctx, domain.NewDownloadJob(id, "https://youtu.be/"+id.String(), domain.Quality720p, false))
	}
	repo.Update(ctx, "dl_2", func(j *domain.DownloadJob) { j.MarkDownloading("Downloading") })
	repo.Update(ctx, "dl_3", func(j *domain.DownloadJob) { j.MarkFailed("boom") })

	handler := NewHealthHandler(repo, &fakeStorage{}, testLogger())
	w := httptest.NewRecorder()
	handler.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Jobs == nil {
		t.Fatal("job stats should not be nil")
	}
	want := repository.QueueStats{Pending: 1, Downloading: 1, Failed: 1}
	if *resp.Jobs != want {
		t.Errorf("jobs = %+v, want %+v", *resp.Jobs, want)
	}
}

func TestHealthHandler_ReadyError(t *testing.T) {
	handler := NewHealthHandler(failingStatsRepo{}, &fakeStorage{}, testLogger())

	w := httptest.NewRecorder()
	handler.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var resp HealthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "error" {
		t.Errorf("status = %q, want %q", resp.Status, "error")
	}
}

func TestHealthHandler_Stats(t *testing.T) {
	storage := &fakeStorage{stats: &service.StorageStats{
		DownloadsPath:  "/data/downloads",
		FileCount:      2,
		FilesBytes:     2_500_000,
		DiskTotalBytes: 10_000_000_000,
		DiskFreeBytes:  4_000_000_000,
	}}
	handler := NewHealthHandler(repository.NewInMemoryJobRepository(10), storage, testLogger())

	w := httptest.NewRecorder()
	handler.Stats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body map[string]any
	decodeBody(t, w, &body)
	if body["downloads_path"] != "/data/downloads" || body["file_count"] != float64(2) {
		t.Errorf("storage fields missing: %v", body)
	}
	if body["files_human"] != "2.5 MB" || body["disk_free_human"] != "4.0 GB" {
		t.Errorf("human sizes = %v / %v", body["files_human"], body["disk_free_human"])
	}
	if _, ok := body["uptime_seconds"]; !ok {
		t.Error("uptime_seconds missing")
	}
}

func TestHealthHandler_StatsError(t *testing.T) {
	storage := &fakeStorage{err: errors.New("stat failed")}
	handler := NewHealthHandler(repository.NewInMemoryJobRepository(10), storage, testLogger())

	w := httptest.NewRecorder()
	handler.Stats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "0m"},
		{5 * time.Minute, "5m"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{3*24*time.Hour + 4*time.Hour + 30*time.Minute, "3d 4h 30m"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
