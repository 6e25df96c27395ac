package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/internal/downloader"
	"github.com/iconidentify/vidgrab/pkg/threads"
	"github.com/iconidentify/vidgrab/pkg/ytdlp"
)

// StreamFile is a temp file produced for a synchronous download.
type StreamFile struct {
	Path string
	// Filename is the attachment name offered to the client.
	Filename string
	Size     int64
}

// Stream downloads url synchronously into the temp directory. The caller
// serves the file and then calls Release. Cancelling ctx stops yt-dlp.
func (s *DownloadService) Stream(ctx context.Context, rawURL, quality string) (*StreamFile, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := domain.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	q, err := domain.ParseQuality(quality, s.DefaultQuality())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.cfg.Storage.TempPath, 0755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	log := s.logger.With("url", rawURL, "mode", "stream")

	target := rawURL
	var direct *threads.MediaItem
	var title string

	if threads.IsThreadsURL(rawURL) {
		res, err := s.resolveThreads(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		switch r := res.(type) {
		case *threads.Embedded:
			if r.Native {
				direct = &threads.MediaItem{URL: r.URL, IsVideo: true}
				title = "Threads video"
			} else {
				target = r.URL
			}
		case *threads.Direct:
			src := r.Media.Sources()
			direct = &src[0]
			title = threads.Describe(r).Title
		case *threads.NotFound:
			return nil, fmt.Errorf("%w: %s", domain.ErrNoMedia, r.Reason)
		}
	}

	if direct == nil {
		info, err := s.toolInfo(ctx, target)
		if err != nil {
			return nil, err
		}
		title = info.Title
	}

	safe := SafeTitle(title)
	stamp := time.Now().UnixMilli()

	if direct != nil {
		fallback := "jpg"
		if direct.IsVideo {
			fallback = "mp4"
		}
		ext := mediaExtension(direct.URL, fallback)
		path := filepath.Join(s.cfg.Storage.TempPath, fmt.Sprintf("%d_%s.%s", stamp, safe, ext))

		log.Info("streaming direct media", "path", path)
		n, err := downloader.SaveToFile(ctx, s.fetcher, direct.URL, path, nil)
		if err != nil {
			return nil, err
		}
		return &StreamFile{Path: path, Filename: safe + "." + ext, Size: n}, nil
	}

	ext := q.Extension()
	output := filepath.Join(s.cfg.Storage.TempPath, fmt.Sprintf("%d_%s.%s", stamp, safe, ext))
	opts := ytdlp.DownloadOptions{
		Format:              q.Format(),
		Output:              output,
		ConcurrentFragments: s.cfg.YtDlp.ConcurrentFragments,
		Logger:              log,
	}
	if s.cfg.YtDlp.UseAria2c && s.hasAria2c() {
		opts.Aria2cArgs = s.cfg.YtDlp.Aria2cArgs
	}

	log.Info("streaming via yt-dlp", "path", output, "quality", q)
	reported, err := s.tool.Download(ctx, target, opts, nil)
	if err != nil {
		os.Remove(output)
		return nil, err
	}

	path := output
	if reported != "" {
		path = reported
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: output file not found", domain.ErrDownloadFailed)
	}
	if e := strings.TrimPrefix(filepath.Ext(path), "."); e != "" {
		ext = e
	}
	return &StreamFile{Path: path, Filename: safe + "." + ext, Size: info.Size()}, nil
}

// Release schedules removal of a served stream file after the temp TTL.
func (s *DownloadService) Release(f *StreamFile) {
	ttl := s.cfg.Storage.TempFileTTL
	time.AfterFunc(ttl, func() {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove temp file", "path", f.Path, "error", err)
		}
	})
}
