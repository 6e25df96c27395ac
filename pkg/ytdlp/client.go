package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// LineFunc receives each non-empty output line of a running command.
type LineFunc func(stream string, line string)

// streamWriter buffers output and calls a callback for each line.
type streamWriter struct {
	stream   string
	callback LineFunc
	buffer   *bytes.Buffer
	pending  []byte
}

func (w *streamWriter) Write(p []byte) (n int, err error) {
	if w.buffer != nil {
		w.buffer.Write(p)
	}

	w.pending = append(w.pending, p...)

	// Progress output may redraw the same line with \r; treat both \r and \n
	// as line boundaries.
	for {
		idx := bytes.IndexAny(w.pending, "\r\n")
		if idx < 0 {
			break
		}

		line := string(w.pending[:idx])

		consume := 1
		if w.pending[idx] == '\r' && idx+1 < len(w.pending) && w.pending[idx+1] == '\n' {
			consume = 2
		}
		w.pending = w.pending[idx+consume:]

		if w.callback != nil {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				w.callback(w.stream, trimmed)
			}
		}
	}

	return len(p), nil
}

// flush emits a trailing line that was not terminated.
func (w *streamWriter) flush() {
	if w.callback != nil {
		if trimmed := strings.TrimSpace(string(w.pending)); trimmed != "" {
			w.callback(w.stream, trimmed)
		}
	}
	w.pending = nil
}

// ExecError is returned when yt-dlp exits unsuccessfully.
type ExecError struct {
	Cmd      string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Cause    error
}

func (e *ExecError) Error() string {
	cmdline := strings.TrimSpace(e.Cmd + " " + strings.Join(e.Args, " "))
	if e.ExitCode != 0 {
		return fmt.Sprintf("ytdlp: command failed (exit %d): %s", e.ExitCode, cmdline)
	}
	return fmt.Sprintf("ytdlp: command failed: %s", cmdline)
}

func (e *ExecError) Unwrap() error { return e.Cause }

// Detail returns the tool's own explanation of the failure: stderr, else
// stdout, else the underlying error.
func (e *ExecError) Detail() string {
	switch {
	case e.Stderr != "":
		return e.Stderr
	case e.Stdout != "":
		return e.Stdout
	case e.Cause != nil:
		return e.Cause.Error()
	}
	return "yt-dlp command failed"
}

// Client runs the yt-dlp executable.
type Client struct {
	// Path to the yt-dlp executable. Defaults to "yt-dlp" (PATH lookup).
	Path string

	// ExtraArgs are always passed before per-call args.
	ExtraArgs []string

	logger *slog.Logger

	execFn func(ctx context.Context, onLine LineFunc, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// New creates a client for the binary at path.
func New(path string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{Path: path, logger: logger.With("component", "ytdlp")}
}

// PathOrDefault returns the configured path or "yt-dlp" if unset.
func (c *Client) PathOrDefault() string {
	if strings.TrimSpace(c.Path) == "" {
		return "yt-dlp"
	}
	return c.Path
}

func (c *Client) exec(ctx context.Context, onLine LineFunc, args ...string) (stdout []byte, stderr []byte, err error) {
	name := c.PathOrDefault()

	fullArgs := make([]string, 0, len(c.ExtraArgs)+len(args))
	fullArgs = append(fullArgs, c.ExtraArgs...)
	fullArgs = append(fullArgs, args...)

	if c.execFn != nil {
		return c.execFn(ctx, onLine, name, fullArgs...)
	}

	c.logger.Debug("executing command", "cmd", name, "args", fullArgs)
	cmd := exec.CommandContext(ctx, name, fullArgs...)
	var outBuf, errBuf bytes.Buffer

	if onLine != nil {
		outW := &streamWriter{stream: "stdout", callback: onLine, buffer: &outBuf}
		errW := &streamWriter{stream: "stderr", callback: onLine, buffer: &errBuf}
		cmd.Stdout = outW
		cmd.Stderr = errW
		defer outW.flush()
		defer errW.flush()
	} else {
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
	}

	if err := cmd.Run(); err != nil {
		// A killed process reports "signal: killed"; surface the cancellation.
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return outBuf.Bytes(), errBuf.Bytes(), err
	}
	return outBuf.Bytes(), errBuf.Bytes(), nil
}

// Version returns `yt-dlp --version`.
func (c *Client) Version(ctx context.Context) (string, error) {
	args := []string{"--version"}
	stdout, stderr, err := c.exec(ctx, nil, args...)
	if err != nil {
		return "", wrapExecError(c.PathOrDefault(), args, stdout, stderr, err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// Info models the fields of yt-dlp's JSON dump used for previews.
type Info struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Duration    float64  `json:"duration"`
	Uploader    string   `json:"uploader"`
	Channel     string   `json:"channel"`
	Thumbnail   string   `json:"thumbnail"`
	ViewCount   *int64   `json:"view_count"`
	Description string   `json:"description"`
	Ext         string   `json:"ext"`
	Extractor   string   `json:"extractor"`
	WebpageURL  string   `json:"webpage_url"`
	Tags        []string `json:"tags,omitempty"`
}

// GetInfo runs yt-dlp in metadata-only mode and parses its JSON output.
func (c *Client) GetInfo(ctx context.Context, url string) (*Info, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("ytdlp: url is required")
	}

	args := []string{"--dump-json", "--no-download", "--no-warnings", "--no-playlist", url}
	stdout, stderr, err := c.exec(ctx, nil, args...)
	if err != nil {
		return nil, wrapExecError(c.PathOrDefault(), args, stdout, stderr, err)
	}

	// A playlist URL dumps one object per line; the first is enough.
	raw := bytes.TrimSpace(stdout)
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	info := &Info{}
	if err := json.Unmarshal(raw, info); err != nil {
		return nil, fmt.Errorf("ytdlp: parse json: %w", err)
	}
	return info, nil
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour. Zero or
// negative durations are "Unknown".
func FormatDuration(seconds float64) string {
	total := int(seconds)
	if total <= 0 {
		return "Unknown"
	}
	hrs := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	if hrs > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

var lookPath = exec.LookPath

// HasAria2c reports whether aria2c is on PATH.
func HasAria2c() bool {
	_, err := lookPath("aria2c")
	return err == nil
}

// LocateBinary resolves the yt-dlp executable: the configured path if set,
// else a yt-dlp file in dir, else a PATH lookup.
func LocateBinary(configured, dir string) string {
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	local := filepath.Join(dir, "yt-dlp")
	if st, err := os.Stat(local); err == nil && !st.IsDir() {
		return local
	}
	return "yt-dlp"
}

func wrapExecError(cmd string, args []string, stdout []byte, stderr []byte, cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}

	exitCode := 0
	var ee *exec.ExitError
	if errors.As(cause, &ee) {
		exitCode = ee.ExitCode()
	}

	return &ExecError{
		Cmd:      cmd,
		Args:     args,
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(string(stdout)),
		Stderr:   strings.TrimSpace(string(stderr)),
		Cause:    cause,
	}
}
