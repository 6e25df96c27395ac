package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iconidentify/vidgrab/internal/config"
	"github.com/iconidentify/vidgrab/internal/domain"
)

// ErrStalled is returned when a media body stops sending data for longer
// than the configured read timeout.
var ErrStalled = errors.New("download stalled")

// HTTPDownloader fetches media files over plain HTTP.
type HTTPDownloader struct {
	// streamClient has no overall timeout; a per-body watchdog aborts stalls.
	streamClient *http.Client
	userAgent    string
	cfg          config.DownloadConfig
	logger       *slog.Logger
}

// NewHTTPDownloader creates a new HTTP media downloader.
func NewHTTPDownloader(cfg config.DownloadConfig, logger *slog.Logger) *HTTPDownloader {
	streamTransport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	return &HTTPDownloader{
		streamClient: &http.Client{
			Transport: streamTransport,
		},
		userAgent: cfg.UserAgent,
		cfg:       cfg,
		logger:    logger.With("component", "http_downloader"),
	}
}

// Download fetches url with retry and returns a stall-detecting reader and
// the content length (-1 when unknown). Caller closes the reader.
func (d *HTTPDownloader) Download(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	type result struct {
		body io.ReadCloser
		size int64
	}

	retryCfg := RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  d.cfg.RetryDelay,
		MaxDelay:      d.cfg.MaxRetryDelay,
		BackoffFactor: 2.0,
	}

	res, err := RetryWithCheck(ctx, retryCfg, func() (result, error) {
		body, size, err := d.downloadOnce(ctx, url)
		return result{body, size}, err
	}, func(err error) bool {
		return ctx.Err() == nil && isRetryableError(err)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("download failed after retries: %w", err)
	}
	return res.body, res.size, nil
}

func (d *HTTPDownloader) downloadOnce(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	// Owned by the returned reader; cancelling it aborts a blocked body read.
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "video/mp4,video/*,image/*;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Referer", "https://www.threads.net/")

	resp, err := d.streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, 0, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		switch resp.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized:
			return nil, 0, domain.ErrURLExpired
		case http.StatusTooManyRequests:
			return nil, 0, domain.ErrRateLimited
		default:
			return nil, 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
	}

	size := resp.ContentLength
	if size < 0 {
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
				size = n
			}
		}
	}

	return newProgressReader(resp.Body, size, d.cfg.ReadTimeout, cancel, d.logger.With("url", url)), size, nil
}

// SaveToFile downloads url into path. onProgress, if set, receives the bytes
// written so far and the expected total (-1 when unknown). A partial file is
// removed on failure.
func SaveToFile(ctx context.Context, d Downloader, url, path string, onProgress func(written, total int64)) (int64, error) {
	body, total, err := d.Download(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	var w io.Writer = f
	if onProgress != nil {
		w = &countingWriter{w: f, total: total, fn: onProgress}
	}

	n, copyErr := io.Copy(w, body)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(path)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("write file: %w", copyErr)
	}
	return n, nil
}

type countingWriter struct {
	w       io.Writer
	written int64
	total   int64
	fn      func(written, total int64)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.written += int64(n)
	c.fn(c.written, c.total)
	return n, err
}

func isRetryableError(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	// A rejected signature will not be accepted on retry.
	if errors.Is(err, domain.ErrURLExpired) {
		return false
	}
	return true
}

// progressReader wraps a response body to log progress and abort stalls.
// The watchdog cancels the request context when no data arrives for
// readTimeout, which unblocks a Read stuck on a silent connection.
type progressReader struct {
	reader      io.ReadCloser
	total       int64
	downloaded  int64
	readTimeout time.Duration
	lastLog     time.Time
	logger      *slog.Logger
	cancel      context.CancelFunc
	watchdog    *time.Timer
	stalled     atomic.Bool
	mu          sync.Mutex
	closed      bool
}

func newProgressReader(r io.ReadCloser, total int64, readTimeout time.Duration, cancel context.CancelFunc, logger *slog.Logger) *progressReader {
	p := &progressReader{
		reader:      r,
		total:       total,
		readTimeout: readTimeout,
		lastLog:     time.Now(),
		logger:      logger,
		cancel:      cancel,
	}
	if readTimeout > 0 {
		p.watchdog = time.AfterFunc(readTimeout, func() {
			p.stalled.Store(true)
			cancel()
		})
	}
	return p
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)

	p.mu.Lock()
	defer p.mu.Unlock()

	if n > 0 {
		p.downloaded += int64(n)
		if p.watchdog != nil && !p.stalled.Load() {
			p.watchdog.Reset(p.readTimeout)
		}

		if now := time.Now(); now.Sub(p.lastLog) > 30*time.Second {
			p.logProgress()
			p.lastLog = now
		}
	}

	if err != nil && err != io.EOF && p.stalled.Load() {
		p.logger.Warn("download stalled", "downloaded_bytes", p.downloaded, "read_timeout", p.readTimeout)
		return n, fmt.Errorf("%w: no data received for %v", ErrStalled, p.readTimeout)
	}

	return n, err
}

func (p *progressReader) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.watchdog != nil {
		p.watchdog.Stop()
	}
	if p.downloaded > 0 {
		p.logProgress()
	}
	p.mu.Unlock()

	err := p.reader.Close()
	p.cancel()
	return err
}

func (p *progressReader) logProgress() {
	if p.total > 0 {
		pct := float64(p.downloaded) / float64(p.total) * 100
		p.logger.Debug("download progress",
			"downloaded_bytes", p.downloaded,
			"total_bytes", p.total,
			"percent", fmt.Sprintf("%.1f%%", pct),
		)
		return
	}
	p.logger.Debug("download progress", "downloaded_bytes", p.downloaded)
}
