package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/vidgrab/internal/config"
	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/internal/downloader"
	"github.com/iconidentify/vidgrab/internal/repository"
	"github.com/iconidentify/vidgrab/pkg/threads"
	"github.com/iconidentify/vidgrab/pkg/ytdlp"
)

// MediaTool is the part of the yt-dlp client the service drives.
type MediaTool interface {
	GetInfo(ctx context.Context, url string) (*ytdlp.Info, error)
	Download(ctx context.Context, url string, opts ytdlp.DownloadOptions, onProgress ytdlp.ProgressFunc) (string, error)
}

// ThreadsResolver resolves Threads post URLs.
type ThreadsResolver interface {
	Resolve(ctx context.Context, rawURL string) (threads.Resolution, error)
}

// DownloadService orchestrates info lookups and downloads through yt-dlp or
// the Threads resolver.
type DownloadService struct {
	jobs     repository.JobRepository
	files    repository.FileRepository
	history  repository.HistoryRepository
	tool     MediaTool
	resolver ThreadsResolver
	fetcher  downloader.Downloader
	cfg      *config.Config
	logger   *slog.Logger

	// hasAria2c reports whether aria2c can be used on this host.
	hasAria2c func() bool
}

// NewDownloadService creates a new download service.
func NewDownloadService(
	jobs repository.JobRepository,
	files repository.FileRepository,
	history repository.HistoryRepository,
	tool MediaTool,
	resolver ThreadsResolver,
	fetcher downloader.Downloader,
	cfg *config.Config,
	logger *slog.Logger,
) *DownloadService {
	if history == nil {
		history = repository.NopHistoryRepository{}
	}
	return &DownloadService{
		jobs:      jobs,
		files:     files,
		history:   history,
		tool:      tool,
		resolver:  resolver,
		fetcher:   fetcher,
		cfg:       cfg,
		logger:    logger.With("component", "download_service"),
		hasAria2c: ytdlp.HasAria2c,
	}
}

// DefaultQuality returns the configured fallback preset.
func (s *DownloadService) DefaultQuality() domain.Quality {
	return domain.Quality(s.cfg.YtDlp.DefaultQuality)
}

// Info returns display metadata for a URL without downloading it.
func (s *DownloadService) Info(ctx context.Context, rawURL string) (*domain.VideoInfo, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := domain.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	if threads.IsThreadsURL(rawURL) {
		res, err := s.resolveThreads(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		switch r := res.(type) {
		case *threads.Embedded:
			if r.Native {
				return &domain.VideoInfo{
					Title:    "Threads video",
					Duration: "Unknown",
					Uploader: "Unknown",
					Type:     string(threads.KindVideo),
				}, nil
			}
			return s.toolInfo(ctx, r.URL)
		case *threads.Direct:
			pi := threads.Describe(r)
			return &domain.VideoInfo{
				Title:     pi.Title,
				Duration:  pi.Duration,
				Uploader:  pi.Uploader,
				Thumbnail: pi.Thumbnail,
				Type:      string(pi.Type),
			}, nil
		case *threads.NotFound:
			return nil, fmt.Errorf("%w: %s", domain.ErrNoMedia, r.Reason)
		}
	}

	return s.toolInfo(ctx, rawURL)
}

func (s *DownloadService) toolInfo(ctx context.Context, rawURL string) (*domain.VideoInfo, error) {
	if t := s.cfg.YtDlp.InfoTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	info, err := s.tool.GetInfo(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch video info: %w", err)
	}

	uploader := info.Uploader
	if uploader == "" {
		uploader = info.Channel
	}
	if uploader == "" {
		uploader = "Unknown"
	}

	return &domain.VideoInfo{
		Title:       info.Title,
		Duration:    ytdlp.FormatDuration(info.Duration),
		Uploader:    uploader,
		Thumbnail:   info.Thumbnail,
		ViewCount:   info.ViewCount,
		Description: threads.TruncateRunes(info.Description, 200),
	}, nil
}

// Start validates the request, queues a download job and returns its ID.
func (s *DownloadService) Start(ctx context.Context, rawURL, quality string, useAria2c bool) (domain.JobID, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := domain.ValidateURL(rawURL); err != nil {
		return "", err
	}
	q, err := domain.ParseQuality(quality, s.DefaultQuality())
	if err != nil {
		return "", err
	}

	if n, err := s.files.CleanupOlderThan(ctx, s.cfg.Storage.FileMaxAge); err != nil {
		s.logger.Warn("cleanup of old files failed", "error", err)
	} else if n > 0 {
		s.logger.Info("removed old files", "count", n)
	}

	job := domain.NewDownloadJob(domain.NewJobID(), rawURL, q, useAria2c)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Info("download queued", "job_id", job.ID, "url", rawURL, "quality", q)
	return job.ID, nil
}

// Status returns a snapshot of a job.
func (s *DownloadService) Status(ctx context.Context, id domain.JobID) (*domain.DownloadJob, error) {
	return s.jobs.Get(ctx, id)
}

// Process runs a queued job to completion. It is called by the worker pool.
func (s *DownloadService) Process(ctx context.Context, id domain.JobID) error {
	job, err := s.jobs.Update(ctx, id, func(j *domain.DownloadJob) {
		j.MarkDownloading("Starting download...")
	})
	if err != nil {
		return err
	}

	log := s.logger.With("job_id", id)
	log.Info("processing download", "url", job.URL, "quality", job.Quality)

	var res *downloadResult
	if threads.IsThreadsURL(job.URL) {
		res, err = s.downloadThreads(ctx, job, log)
	} else {
		res, err = s.downloadWithTool(ctx, job, job.URL, log)
	}

	if err != nil {
		msg := errorMessage(err)
		// Use a fresh context so a shutdown still records the failure.
		s.jobs.Update(context.Background(), id, func(j *domain.DownloadJob) {
			j.MarkFailed(msg)
		})
		log.Error("download failed", "error", err)
		return domain.NewJobError(id, "process", err)
	}

	size := humanize.Bytes(uint64(res.sizeBytes))
	done, err := s.jobs.Update(ctx, id, func(j *domain.DownloadJob) {
		j.Title = res.title
		j.Source = res.source
		j.MarkCompleted(res.files[0], res.files, res.sizeBytes, size)
	})
	if err != nil {
		return domain.NewJobError(id, "complete", err)
	}

	if err := s.history.Add(ctx, domain.HistoryEntry{
		ID:          id,
		URL:         done.URL,
		Title:       done.Title,
		Filename:    done.Filename,
		SizeBytes:   done.SizeBytes,
		Source:      done.Source,
		CompletedAt: *done.CompletedAt,
	}); err != nil {
		log.Warn("failed to record history", "error", err)
	}

	log.Info("download completed", "filename", done.Filename, "size", size, "source", done.Source)
	return nil
}

type downloadResult struct {
	files     []string
	sizeBytes int64
	title     string
	source    domain.JobSource
}

func (s *DownloadService) downloadWithTool(ctx context.Context, job *domain.DownloadJob, target string, log *slog.Logger) (*downloadResult, error) {
	opts := ytdlp.DownloadOptions{
		Format:              job.Quality.Format(),
		OutputDir:           s.files.Dir(),
		ConcurrentFragments: s.cfg.YtDlp.ConcurrentFragments,
		Logger:              log,
	}
	if job.UseAria2c && s.hasAria2c() {
		opts.Aria2cArgs = s.cfg.YtDlp.Aria2cArgs
	}

	reported, err := s.tool.Download(ctx, target, opts, func(pct float64) {
		s.jobs.Update(ctx, job.ID, func(j *domain.DownloadJob) { j.UpdateProgress(pct) })
	})
	if err != nil {
		return nil, err
	}

	name := ""
	if reported != "" {
		name = filepath.Base(reported)
		if _, err := s.files.Path(ctx, name); err != nil {
			name = ""
		}
	}
	if name == "" {
		// yt-dlp did not name the file; take the newest one.
		name, err = s.files.Newest(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: output file not found", domain.ErrDownloadFailed)
		}
	}

	size, err := s.fileSize(ctx, name)
	if err != nil {
		return nil, err
	}

	return &downloadResult{
		files:     []string{name},
		sizeBytes: size,
		title:     strings.TrimSuffix(name, filepath.Ext(name)),
		source:    domain.SourceYtDlp,
	}, nil
}

func (s *DownloadService) downloadThreads(ctx context.Context, job *domain.DownloadJob, log *slog.Logger) (*downloadResult, error) {
	s.jobs.Update(ctx, job.ID, func(j *domain.DownloadJob) { j.MarkDownloading("Resolving Threads post...") })

	res, err := s.resolveThreads(ctx, job.URL)
	if err != nil {
		return nil, err
	}
	shortcode, _ := threads.ShortcodeFromURL(job.URL)

	switch r := res.(type) {
	case *threads.Embedded:
		if r.Native {
			log.Info("downloading native Threads video", "url", r.URL)
			return s.fetchMedia(ctx, job.ID, shortcode, "", []threads.MediaItem{{URL: r.URL, IsVideo: true}})
		}
		log.Info("Threads post embeds external media", "delegate", r.URL)
		return s.downloadWithTool(ctx, job, r.URL, log)
	case *threads.Direct:
		title := threads.Describe(r).Title
		return s.fetchMedia(ctx, job.ID, shortcode, title, r.Media.Sources())
	case *threads.NotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrNoMedia, r.Reason)
	}
	return nil, fmt.Errorf("%w: unexpected resolution %T", domain.ErrDownloadFailed, res)
}

// fetchMedia downloads every item into the downloads directory as
// threads_<shortcode>[_<n>].<ext>, reporting byte progress across all items.
func (s *DownloadService) fetchMedia(ctx context.Context, id domain.JobID, shortcode, title string, items []threads.MediaItem) (*downloadResult, error) {
	if len(items) == 0 {
		return nil, domain.ErrNoMedia
	}

	result := &downloadResult{title: title, source: domain.SourceThreads}
	for i, item := range items {
		name := threadsFilename(shortcode, i, len(items), item)
		path := filepath.Join(s.files.Dir(), name)

		n, err := downloader.SaveToFile(ctx, s.fetcher, item.URL, path, func(written, total int64) {
			if total <= 0 {
				return
			}
			pct := (float64(i) + float64(written)/float64(total)) / float64(len(items)) * 100
			s.jobs.Update(ctx, id, func(j *domain.DownloadJob) { j.UpdateProgress(pct) })
		})
		if err != nil {
			return nil, fmt.Errorf("fetch media %d/%d: %w", i+1, len(items), err)
		}

		result.files = append(result.files, name)
		result.sizeBytes += n
	}

	if result.title == "" {
		result.title = strings.TrimSuffix(result.files[0], filepath.Ext(result.files[0]))
	}
	return result, nil
}

func threadsFilename(shortcode string, index, count int, item threads.MediaItem) string {
	fallback := "jpg"
	if item.IsVideo {
		fallback = "mp4"
	}
	ext := mediaExtension(item.URL, fallback)

	stem := "threads_" + shortcode
	if shortcode == "" {
		stem = "threads_post"
	}
	if count > 1 {
		stem = fmt.Sprintf("%s_%d", stem, index+1)
	}
	return stem + "." + ext
}

// resolveThreads resolves a post, retrying while the outcome is transient.
func (s *DownloadService) resolveThreads(ctx context.Context, rawURL string) (threads.Resolution, error) {
	tc := s.cfg.Threads
	retryCfg := downloader.RetryConfig{
		MaxAttempts:   tc.ResolveAttempts,
		InitialDelay:  tc.ResolveRetryDelay,
		MaxDelay:      4 * tc.ResolveRetryDelay,
		BackoffFactor: 2.0,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			s.logger.Warn("threads resolve failed, retrying",
				"url", rawURL, "attempt", attempt, "delay", delay, "error", err)
		},
	}

	res, err := downloader.RetryWithCheck(ctx, retryCfg, func() (threads.Resolution, error) {
		return s.resolver.Resolve(ctx, rawURL)
	}, threads.IsTransient)
	if err != nil {
		if errors.Is(err, threads.ErrMissingShortcode) || errors.Is(err, threads.ErrMalformedShortcode) || errors.Is(err, threads.ErrNotThreadsURL) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
		}
		if errors.Is(err, threads.ErrPostUnavailable) || errors.Is(err, threads.ErrNoTokens) {
			return nil, fmt.Errorf("%w: %v", domain.ErrNoMedia, err)
		}
		return nil, err
	}
	return res, nil
}

func (s *DownloadService) fileSize(ctx context.Context, name string) (int64, error) {
	path, err := s.files.Path(ctx, name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat output: %w", err)
	}
	return info.Size(), nil
}

// errorMessage renders err for the job status payload.
func errorMessage(err error) string {
	var ee *ytdlp.ExecError
	if errors.As(err, &ee) {
		return "Download failed: " + ee.Detail()
	}
	if threads.IsTransient(err) {
		return "Threads could not be reached, try again later: " + err.Error()
	}
	return err.Error()
}
