package ytdlp

import (
	"log/slog"
	"path/filepath"
	"strconv"
)

// OutputTemplate is the yt-dlp file name template used for downloads.
const OutputTemplate = "%(title)s.%(ext)s"

// DownloadOptions controls the argument list of a download run.
type DownloadOptions struct {
	// Format is the -f selector.
	Format string
	// OutputDir receives the file; the name follows OutputTemplate unless
	// Output is set.
	OutputDir string
	// Output overrides the full output path template.
	Output string
	// ConcurrentFragments is passed to --concurrent-fragments. Zero means 8.
	ConcurrentFragments int
	// Aria2cArgs, when non-empty, hands transfers to aria2c with these
	// --external-downloader-args.
	Aria2cArgs string
	// Logger, if set, receives yt-dlp output lines instead of the client's
	// logger. It is not part of the argument list.
	Logger *slog.Logger
}

// Args builds the yt-dlp argument list for url.
func (o DownloadOptions) Args(url string) []string {
	output := o.Output
	if output == "" {
		output = filepath.Join(o.OutputDir, OutputTemplate)
	}
	fragments := o.ConcurrentFragments
	if fragments <= 0 {
		fragments = 8
	}

	args := []string{
		"-f", o.Format,
		"-o", output,
		"--restrict-filenames",

		"--concurrent-fragments", strconv.Itoa(fragments),
		"--buffer-size", "32K",
		"--http-chunk-size", "10M",

		"--socket-timeout", "30",
		"--retries", "5",
		"--fragment-retries", "5",

		"--no-warnings",
		"--no-playlist",
		"--no-write-thumbnail",
		"--no-write-description",
		"--no-write-info-json",
		"--no-write-comments",
		"--no-mtime",
	}

	if o.Aria2cArgs != "" {
		args = append(args,
			"--external-downloader", "aria2c",
			"--external-downloader-args", o.Aria2cArgs,
		)
	}

	return append(args, url)
}
