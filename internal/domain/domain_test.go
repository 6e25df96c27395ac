package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Job Tests
// =============================================================================

func TestNewJobID(t *testing.T) {
	seen := make(map[JobID]bool)
	for i := 0; i < 100; i++ {
		id := NewJobID()
		if !strings.HasPrefix(id.String(), "dl_") || len(id) != 11 {
			t.Fatalf("NewJobID() = %q, want dl_ + 8 chars", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestDownloadJob_Lifecycle(t *testing.T) {
	job := NewDownloadJob("dl_12345678", "https://youtu.be/abc", Quality720p, true)

	if job.Status != JobStatusPending {
		t.Errorf("new job status = %q, want pending", job.Status)
	}
	if job.IsFinished() {
		t.Error("new job should not be finished")
	}

	job.MarkDownloading("Starting download")
	if job.Status != JobStatusDownloading {
		t.Errorf("status = %q, want downloading", job.Status)
	}

	job.UpdateProgress(42.5)
	if job.Progress != 42.5 {
		t.Errorf("progress = %v, want 42.5", job.Progress)
	}
	if job.Message != "Downloading: 42.5%" {
		t.Errorf("message = %q", job.Message)
	}

	job.MarkCompleted("My_Video.mp4", []string{"My_Video.mp4"}, 2048, "2.0 kB")
	if job.Status != JobStatusCompleted || job.Progress != 100 {
		t.Errorf("job = %+v", job)
	}
	if job.DownloadURL != "/download-file/My_Video.mp4" {
		t.Errorf("DownloadURL = %q", job.DownloadURL)
	}
	if !job.IsFinished() || job.CompletedAt == nil {
		t.Error("completed job should be finished with a completion time")
	}
}

func TestDownloadJob_UpdateProgress(t *testing.T) {
	tests := []struct {
		name  string
		steps []float64
		want  float64
	}{
		{"increasing", []float64{10, 20, 30}, 30},
		{"never backwards", []float64{80, 5}, 80},
		{"clamped high", []float64{150}, 100},
		{"clamped low", []float64{-3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewDownloadJob("dl_1", "u", QualityBest, false)
			for _, p := range tt.steps {
				job.UpdateProgress(p)
			}
			if job.Progress != tt.want {
				t.Errorf("progress = %v, want %v", job.Progress, tt.want)
			}
		})
	}
}

func TestDownloadJob_MarkFailed(t *testing.T) {
	job := NewDownloadJob("dl_1", "u", QualityBest, false)
	job.UpdateProgress(50)
	job.MarkFailed("ERROR: Unsupported URL")

	if job.Status != JobStatusError {
		t.Errorf("status = %q, want error", job.Status)
	}
	if job.Progress != 0 {
		t.Errorf("progress = %v, want 0", job.Progress)
	}
	if job.Error != "ERROR: Unsupported URL" || job.Message != job.Error {
		t.Errorf("job = %+v", job)
	}
	if !job.IsFinished() {
		t.Error("failed job should be finished")
	}
}

func TestDownloadJob_JSON(t *testing.T) {
	job := NewDownloadJob("dl_abcdef12", "https://x.com/a/status/1", Quality480p, false)
	job.MarkCompleted("file name.mp4", nil, 10, "10 B")

	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["downloadId"] != "dl_abcdef12" {
		t.Errorf("downloadId = %v", decoded["downloadId"])
	}
	if decoded["downloadUrl"] != "/download-file/file%20name.mp4" {
		t.Errorf("downloadUrl = %v", decoded["downloadUrl"])
	}
	if _, ok := decoded["SizeBytes"]; ok {
		t.Error("SizeBytes should not be serialized")
	}
}

// =============================================================================
// Quality Tests
// =============================================================================

func TestParseQuality(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Quality
		wantErr bool
	}{
		{"empty uses fallback", "", Quality720p, false},
		{"best", "best", QualityBest, false},
		{"1080p", "1080p", Quality1080p, false},
		{"audio", "audio", QualityAudio, false},
		{"unknown", "8k", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuality(tt.in, Quality720p)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuality) {
					t.Errorf("error = %v, want ErrInvalidQuality", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseQuality(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuality_Format(t *testing.T) {
	tests := map[Quality]string{
		QualityBest:  "best",
		Quality1080p: "best[height<=1080][ext=mp4]/best[height<=1080]/best",
		Quality360p:  "best[height<=360][ext=mp4]/best[height<=360]/best",
		QualityAudio: "bestaudio[ext=m4a]/bestaudio",
		"bogus":      "best[height<=720][ext=mp4]/best[height<=720]/best",
	}
	for q, want := range tests {
		if got := q.Format(); got != want {
			t.Errorf("%q.Format() = %q, want %q", q, got, want)
		}
	}
	if QualityAudio.Extension() != "m4a" || Quality720p.Extension() != "mp4" {
		t.Error("unexpected extensions")
	}
}

// =============================================================================
// URL Validation Tests
// =============================================================================

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url  string
		want error
	}{
		{"https://www.youtube.com/watch?v=abc", nil},
		{"https://youtu.be/abc", nil},
		{"https://m.facebook.com/watch/?v=1", nil},
		{"https://vm.tiktok.com/ZM123/", nil},
		{"https://x.com/user/status/1", nil},
		{"http://vimeo.com/123", nil},
		{"https://www.threads.net/@u/post/ABC", nil},
		{"https://www.threads.com/@u/post/ABC", nil},
		{"https://example.com/video.mp4", ErrUnsupportedPlatform},
		{"ftp://youtube.com/x", ErrInvalidURL},
		{"youtube.com/watch?v=abc", ErrInvalidURL},
		{"", ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if err := ValidateURL(tt.url); !errors.Is(err, tt.want) {
				t.Errorf("ValidateURL(%q) = %v, want %v", tt.url, err, tt.want)
			}
		})
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestJobError(t *testing.T) {
	err := NewJobError("dl_1", "download", ErrDownloadFailed)
	if err.Error() != "download [dl_1]: download failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrDownloadFailed) {
		t.Error("JobError should unwrap to its cause")
	}

	noID := NewJobError("", "info", ErrNoMedia)
	if noID.Error() != "info: no downloadable media found" {
		t.Errorf("Error() = %q", noID.Error())
	}
}
