package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobID is a unique identifier for a download job.
type JobID string

// String returns the string representation of the JobID.
func (id JobID) String() string {
	return string(id)
}

// NewJobID returns a fresh identifier of the form dl_<8 hex chars>.
func NewJobID() JobID {
	return JobID("dl_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// JobStatus represents the current state of a download job.
type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusError       JobStatus = "error"
)

// JobSource records which path produced the file.
type JobSource string

const (
	SourceYtDlp   JobSource = "ytdlp"
	SourceThreads JobSource = "threads"
)

// DownloadJob tracks one asynchronous download.
type DownloadJob struct {
	ID          JobID      `json:"downloadId"`
	URL         string     `json:"url"`
	Quality     Quality    `json:"quality"`
	UseAria2c   bool       `json:"useAria2c"`
	Status      JobStatus  `json:"status"`
	Progress    float64    `json:"progress"`
	Message     string     `json:"message"`
	Title       string     `json:"title,omitempty"`
	Filename    string     `json:"filename,omitempty"`
	Files       []string   `json:"files,omitempty"`
	Size        string     `json:"size,omitempty"`
	SizeBytes   int64      `json:"-"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	Source      JobSource  `json:"source,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewDownloadJob creates a pending job.
func NewDownloadJob(id JobID, rawURL string, quality Quality, useAria2c bool) *DownloadJob {
	now := time.Now()
	return &DownloadJob{
		ID:        id,
		URL:       rawURL,
		Quality:   quality,
		UseAria2c: useAria2c,
		Status:    JobStatusPending,
		Message:   "Queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkDownloading moves the job into the downloading state.
func (j *DownloadJob) MarkDownloading(message string) {
	j.Status = JobStatusDownloading
	j.Message = message
	j.UpdatedAt = time.Now()
}

// UpdateProgress records download progress. Values are clamped to [0, 100]
// and never move backwards while downloading; yt-dlp restarts the
// percentage for each format it fetches.
func (j *DownloadJob) UpdateProgress(pct float64) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct < j.Progress {
		return
	}
	j.Progress = pct
	j.Message = fmt.Sprintf("Downloading: %.1f%%", pct)
	j.UpdatedAt = time.Now()
}

// MarkCompleted records the finished file.
func (j *DownloadJob) MarkCompleted(filename string, files []string, sizeBytes int64, size string) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Message = "Download complete"
	j.Filename = filename
	j.Files = files
	j.SizeBytes = sizeBytes
	j.Size = size
	j.DownloadURL = FileDownloadURL(filename)
	j.Error = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

// MarkFailed records a terminal failure.
func (j *DownloadJob) MarkFailed(err string) {
	now := time.Now()
	j.Status = JobStatusError
	j.Progress = 0
	j.Message = err
	j.Error = err
	j.UpdatedAt = now
	j.CompletedAt = &now
}

// IsFinished reports whether the job reached a terminal state.
func (j *DownloadJob) IsFinished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusError
}

// FileDownloadURL returns the route that serves a downloaded file.
func FileDownloadURL(name string) string {
	return "/download-file/" + url.PathEscape(name)
}
