package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/internal/repository"
)

// ErrShutdownTimeout is returned when workers don't stop within timeout.
var ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

// Processor runs a single download job to completion.
type Processor interface {
	Process(ctx context.Context, id domain.JobID) error
}

// Pool manages a pool of workers draining the download queue.
type Pool struct {
	workers      int
	pollInterval time.Duration
	jobRepo      repository.JobRepository
	processor    Processor
	logger       *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds worker pool configuration.
type Config struct {
	Workers      int
	PollInterval time.Duration
}

// NewPool creates a new worker pool.
func NewPool(
	cfg Config,
	jobRepo repository.JobRepository,
	processor Processor,
	logger *slog.Logger,
) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:      cfg.Workers,
		pollInterval: cfg.PollInterval,
		jobRepo:      jobRepo,
		processor:    processor,
		logger:       logger.With("component", "worker_pool"),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool", "workers", p.workers, "poll_interval", p.pollInterval)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels in-flight downloads and waits for workers to exit.
func (p *Pool) Stop(timeout time.Duration) error {
	p.logger.Info("stopping worker pool")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Debug("worker started")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			logger.Debug("worker stopping")
			return
		case <-ticker.C:
			// Drain everything queued before waiting for the next tick.
			for p.ctx.Err() == nil && p.processNextJob(logger) {
			}
		}
	}
}

// processNextJob reports whether a job was taken from the queue.
func (p *Pool) processNextJob(logger *slog.Logger) bool {
	job, err := p.jobRepo.Dequeue(p.ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoJobs) {
			logger.Error("failed to dequeue job", "error", err)
		}
		return false
	}

	logger = logger.With("job_id", job.ID)
	start := time.Now()

	if err := p.processor.Process(p.ctx, job.ID); err != nil {
		logger.Warn("job failed", "error", err, "duration", time.Since(start))
		return true
	}

	logger.Info("job completed", "duration", time.Since(start))
	return true
}
