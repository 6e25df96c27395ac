package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamWriter_SplitsOnCRAndLF(t *testing.T) {
	var buf bytes.Buffer
	var lines []string
	w := &streamWriter{
		stream: "stdout",
		callback: func(stream string, line string) {
			lines = append(lines, stream+":"+line)
		},
		buffer: &buf,
	}

	_, err := w.Write([]byte("a\rb\nc\r\nd"))
	require.NoError(t, err)
	require.Equal(t, []string{"stdout:a", "stdout:b", "stdout:c"}, lines)

	w.flush()
	require.Equal(t, []string{"stdout:a", "stdout:b", "stdout:c", "stdout:d"}, lines)
	require.Equal(t, "a\rb\nc\r\nd", buf.String())
}

func TestStreamWriter_SkipsBlankLines(t *testing.T) {
	var lines []string
	w := &streamWriter{stream: "stderr", callback: func(_, line string) { lines = append(lines, line) }}

	_, err := w.Write([]byte("\n\n  \r\nwarn\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"warn"}, lines)
}

func TestGetInfo_ParsesJSON(t *testing.T) {
	c := New("", nil)
	var gotArgs []string
	c.execFn = func(ctx context.Context, onLine LineFunc, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "yt-dlp", name)
		gotArgs = args
		return []byte(`{"id":"abc","title":"hello","duration":125,"channel":"chan","view_count":42,"thumbnail":"https://i.test/t.jpg"}` + "\n"), nil, nil
	}

	info, err := c.GetInfo(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	require.Equal(t, "abc", info.ID)
	require.Equal(t, "hello", info.Title)
	require.Equal(t, 125.0, info.Duration)
	require.Equal(t, "chan", info.Channel)
	require.NotNil(t, info.ViewCount)
	require.Equal(t, int64(42), *info.ViewCount)

	require.Contains(t, gotArgs, "--dump-json")
	require.Contains(t, gotArgs, "--no-download")
	require.Equal(t, "https://youtu.be/abc", gotArgs[len(gotArgs)-1])
}

func TestGetInfo_FirstObjectOfPlaylist(t *testing.T) {
	c := New("", nil)
	c.execFn = func(ctx context.Context, onLine LineFunc, name string, args ...string) ([]byte, []byte, error) {
		return []byte("{\"title\":\"one\"}\n{\"title\":\"two\"}\n"), nil, nil
	}

	info, err := c.GetInfo(context.Background(), "https://youtube.com/playlist?list=x")
	require.NoError(t, err)
	require.Equal(t, "one", info.Title)
}

func TestGetInfo_WrapsExecError(t *testing.T) {
	c := New("/opt/yt-dlp", nil)
	c.execFn = func(ctx context.Context, onLine LineFunc, name string, args ...string) ([]byte, []byte, error) {
		return []byte("out"), []byte("ERROR: Unsupported URL\n"), errors.New("exit status 1")
	}

	_, err := c.GetInfo(context.Background(), "https://example.com")
	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "/opt/yt-dlp", ee.Cmd)
	require.Equal(t, "ERROR: Unsupported URL", ee.Stderr)
	require.Equal(t, "ERROR: Unsupported URL", ee.Detail())
}

func TestGetInfo_RequiresURL(t *testing.T) {
	c := New("", nil)
	_, err := c.GetInfo(context.Background(), "  ")
	require.Error(t, err)
}

func TestGetInfo_BadJSON(t *testing.T) {
	c := New("", nil)
	c.execFn = func(ctx context.Context, onLine LineFunc, name string, args ...string) ([]byte, []byte, error) {
		return []byte("not json"), nil, nil
	}

	_, err := c.GetInfo(context.Background(), "https://youtu.be/abc")
	require.ErrorContains(t, err, "parse json")
}

func TestVersion_TrimsOutput(t *testing.T) {
	c := New("", nil)
	c.execFn = func(ctx context.Context, onLine LineFunc, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, []string{"--version"}, args)
		return []byte("2025.01.01\n"), nil, nil
	}

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025.01.01", v)
}

func TestClient_ExtraArgsComeFirst(t *testing.T) {
	c := New("", nil)
	c.ExtraArgs = []string{"--proxy", "socks5://127.0.0.1:9050"}
	c.execFn = func(ctx context.Context, onLine LineFunc, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, []string{"--proxy", "socks5://127.0.0.1:9050", "--version"}, args)
		return []byte("1"), nil, nil
	}

	_, err := c.Version(context.Background())
	require.NoError(t, err)
}

func TestExecError_Detail(t *testing.T) {
	tests := []struct {
		name string
		err  *ExecError
		want string
	}{
		{"stderr wins", &ExecError{Stderr: "e", Stdout: "o", Cause: errors.New("c")}, "e"},
		{"stdout fallback", &ExecError{Stdout: "o", Cause: errors.New("c")}, "o"},
		{"cause fallback", &ExecError{Cause: errors.New("c")}, "c"},
		{"nothing", &ExecError{}, "yt-dlp command failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Detail())
		})
	}
}

func TestWrapExecError_ContextPassesThrough(t *testing.T) {
	err := wrapExecError("yt-dlp", nil, nil, nil, context.Canceled)
	require.ErrorIs(t, err, context.Canceled)
	var ee *ExecError
	require.False(t, errors.As(err, &ee))
}

func TestWrapExecError_TrimsOutput(t *testing.T) {
	err := wrapExecError("yt-dlp", []string{"--version"}, []byte(" out \n"), []byte(" err \n"), errors.New("boom"))
	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "out", ee.Stdout)
	require.Equal(t, "err", ee.Stderr)
	require.Equal(t, 0, ee.ExitCode)
	require.Contains(t, ee.Error(), "yt-dlp --version")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "Unknown"},
		{-5, "Unknown"},
		{5, "0:05"},
		{65, "1:05"},
		{599.9, "9:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{36000, "10:00:00"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatDuration(tt.in), "FormatDuration(%v)", tt.in)
	}
}

func TestLocateBinary(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, "/custom/yt-dlp", LocateBinary("/custom/yt-dlp", dir))
	require.Equal(t, "yt-dlp", LocateBinary("", dir))

	local := filepath.Join(dir, "yt-dlp")
	require.NoError(t, os.WriteFile(local, []byte("#!/bin/sh\n"), 0o755))
	require.Equal(t, local, LocateBinary("", dir))
}

func TestHasAria2c(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	lookPath = func(file string) (string, error) {
		require.Equal(t, "aria2c", file)
		return "/usr/bin/aria2c", nil
	}
	require.True(t, HasAria2c())

	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	require.False(t, HasAria2c())
}

func TestClient_PathOrDefault(t *testing.T) {
	c := &Client{Path: "   "}
	require.Equal(t, "yt-dlp", c.PathOrDefault())

	c.Path = "/usr/local/bin/yt-dlp"
	require.Equal(t, "/usr/local/bin/yt-dlp", c.PathOrDefault())
	require.True(t, strings.HasSuffix(c.PathOrDefault(), "yt-dlp"))
}
