package repository

import (
	"context"
	"time"

	"github.com/iconidentify/vidgrab/internal/domain"
)

// JobRepository manages download jobs and their queue.
type JobRepository interface {
	// Enqueue stores a new job and queues it for processing.
	Enqueue(ctx context.Context, job *domain.DownloadJob) error

	// Dequeue retrieves the next pending job (FIFO).
	Dequeue(ctx context.Context) (*domain.DownloadJob, error)

	// Update applies fn to the stored job under the repository lock.
	Update(ctx context.Context, id domain.JobID, fn func(job *domain.DownloadJob)) (*domain.DownloadJob, error)

	// Get returns a copy of the job.
	Get(ctx context.Context, id domain.JobID) (*domain.DownloadJob, error)

	// PruneFinished removes finished jobs last updated before now-maxAge.
	PruneFinished(ctx context.Context, maxAge time.Duration) (int, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)
}

// QueueStats contains job table statistics.
type QueueStats struct {
	Pending     int `json:"pending"`
	Downloading int `json:"downloading"`
	Completed   int `json:"completed"`
	Failed      int `json:"failed"`
}

// FileRepository manages finished files in the downloads directory.
type FileRepository interface {
	// Dir returns the directory files are stored in.
	Dir() string

	// List returns files newest first.
	List(ctx context.Context) ([]domain.FileInfo, error)

	// Path resolves a file name to its path, failing if it does not exist.
	Path(ctx context.Context, name string) (string, error)

	// Delete removes a file.
	Delete(ctx context.Context, name string) error

	// CleanupOlderThan removes files modified before now-maxAge.
	CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int, error)

	// Newest returns the most recently modified file.
	Newest(ctx context.Context) (string, error)
}

// HistoryRepository records completed downloads.
type HistoryRepository interface {
	// Add records a completed download.
	Add(ctx context.Context, entry domain.HistoryEntry) error

	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)

	// Close releases the underlying storage.
	Close() error
}
