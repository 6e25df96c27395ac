package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iconidentify/vidgrab/internal/repository"
)

// FileCleaner removes expired downloads.
type FileCleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

// Janitor periodically evicts finished jobs and expired files.
type Janitor struct {
	interval time.Duration
	jobTTL   time.Duration
	jobs     repository.JobRepository
	files    FileCleaner
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewJanitor creates a janitor running every interval.
func NewJanitor(interval, jobTTL time.Duration, jobs repository.JobRepository, files FileCleaner, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Janitor{
		interval: interval,
		jobTTL:   jobTTL,
		jobs:     jobs,
		files:    files,
		logger:   logger.With("component", "janitor"),
	}
}

// Start runs one sweep immediately and then one per interval until Stop.
func (j *Janitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.Sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Sweep(ctx)
			}
		}
	}()
}

// Stop halts the janitor and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

// Sweep runs one cleanup pass.
func (j *Janitor) Sweep(ctx context.Context) {
	if j.jobTTL > 0 {
		n, err := j.jobs.PruneFinished(ctx, j.jobTTL)
		if err != nil {
			j.logger.Error("failed to prune jobs", "error", err)
		} else if n > 0 {
			j.logger.Info("pruned finished jobs", "count", n)
		}
	}

	n, err := j.files.Cleanup(ctx)
	if err != nil {
		j.logger.Error("failed to clean up files", "error", err)
	} else if n > 0 {
		j.logger.Info("removed expired files", "count", n)
	}
}
