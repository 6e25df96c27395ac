package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iconidentify/vidgrab/internal/domain"
)

// InMemoryJobRepository implements JobRepository using in-memory storage.
// Reads return copies so callers never observe a job mid-update.
type InMemoryJobRepository struct {
	mu         sync.RWMutex
	jobs       map[domain.JobID]*domain.DownloadJob
	queue      []domain.JobID // FIFO queue of pending job IDs
	maxEntries int
}

// NewInMemoryJobRepository creates a job table holding at most maxEntries
// jobs. A non-positive maxEntries disables the bound.
func NewInMemoryJobRepository(maxEntries int) *InMemoryJobRepository {
	return &InMemoryJobRepository{
		jobs:       make(map[domain.JobID]*domain.DownloadJob),
		queue:      make([]domain.JobID, 0),
		maxEntries: maxEntries,
	}
}

// Enqueue adds a job to the queue. When the table is full the oldest
// finished jobs are evicted; if none are finished ErrQueueFull is returned.
func (r *InMemoryJobRepository) Enqueue(ctx context.Context, job *domain.DownloadJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxEntries > 0 && len(r.jobs) >= r.maxEntries {
		r.evictLocked(len(r.jobs) - r.maxEntries + 1)
		if len(r.jobs) >= r.maxEntries {
			return domain.ErrQueueFull
		}
	}

	stored := cloneJob(job)
	r.jobs[job.ID] = stored
	r.queue = append(r.queue, job.ID)

	return nil
}

func (r *InMemoryJobRepository) evictLocked(n int) {
	finished := make([]*domain.DownloadJob, 0)
	for _, job := range r.jobs {
		if job.IsFinished() {
			finished = append(finished, job)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].UpdatedAt.Before(finished[j].UpdatedAt)
	})
	for i := 0; i < n && i < len(finished); i++ {
		delete(r.jobs, finished[i].ID)
	}
}

// Dequeue retrieves the next pending job (FIFO).
func (r *InMemoryJobRepository) Dequeue(ctx context.Context) (*domain.DownloadJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.queue) > 0 {
		id := r.queue[0]
		r.queue = r.queue[1:]

		job, ok := r.jobs[id]
		if !ok || job.Status != domain.JobStatusPending {
			continue
		}
		return cloneJob(job), nil
	}

	return nil, domain.ErrNoJobs
}

// Update modifies job state.
func (r *InMemoryJobRepository) Update(ctx context.Context, id domain.JobID, fn func(job *domain.DownloadJob)) (*domain.DownloadJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	fn(job)
	return cloneJob(job), nil
}

// Get retrieves a job by ID.
func (r *InMemoryJobRepository) Get(ctx context.Context, id domain.JobID) (*domain.DownloadJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	return cloneJob(job), nil
}

// PruneFinished removes finished jobs not updated within maxAge.
func (r *InMemoryJobRepository) PruneFinished(ctx context.Context, maxAge time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range r.jobs {
		if job.IsFinished() && job.UpdatedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}

	return removed, nil
}

// Stats returns queue statistics.
func (r *InMemoryJobRepository) Stats(ctx context.Context) (*QueueStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &QueueStats{}
	for _, job := range r.jobs {
		switch job.Status {
		case domain.JobStatusPending:
			stats.Pending++
		case domain.JobStatusDownloading:
			stats.Downloading++
		case domain.JobStatusCompleted:
			stats.Completed++
		case domain.JobStatusError:
			stats.Failed++
		}
	}

	return stats, nil
}

// Len returns the number of stored jobs.
func (r *InMemoryJobRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func cloneJob(job *domain.DownloadJob) *domain.DownloadJob {
	c := *job
	if job.Files != nil {
		c.Files = append([]string(nil), job.Files...)
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
