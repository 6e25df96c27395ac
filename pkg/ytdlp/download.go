package ytdlp

import (
	"context"
	"fmt"
	"strings"
)

// ProgressFunc receives download percentages as yt-dlp reports them.
type ProgressFunc func(percent float64)

// Download runs yt-dlp for url with progress output enabled and returns the
// path of the produced file as reported by yt-dlp. The returned path is
// empty when yt-dlp never named the file; callers then have to look for it.
//
// The process is killed when ctx is cancelled.
func (c *Client) Download(ctx context.Context, url string, opts DownloadOptions, onProgress ProgressFunc) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("ytdlp: url is required")
	}
	if opts.Format == "" {
		return "", fmt.Errorf("ytdlp: format is required")
	}

	args := append([]string{"--newline", "--progress"}, opts.Args(url)...)

	log := c.logger
	if opts.Logger != nil {
		log = opts.Logger
	}

	var filename string
	onLine := func(stream, line string) {
		log.Debug("yt-dlp output", "stream", stream, "line", line)
		if stream != "stdout" {
			return
		}
		p := ParseProgressLine(line)
		if p.Filename != "" {
			filename = p.Filename
		}
		if p.HasPercent && onProgress != nil {
			onProgress(p.Percent)
		}
	}

	stdout, stderr, err := c.exec(ctx, onLine, args...)
	if err != nil {
		return "", wrapExecError(c.PathOrDefault(), args, stdout, stderr, err)
	}
	return filename, nil
}
