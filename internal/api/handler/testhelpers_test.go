package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withURLParam attaches a chi route parameter to r.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// fakeDownloads implements Downloads.
type fakeDownloads struct {
	mu sync.Mutex

	info    *domain.VideoInfo
	infoErr error
	infoURL string

	startID    domain.JobID
	startErr   error
	startCalls []startCall

	jobs map[domain.JobID]*domain.DownloadJob

	stream    *service.StreamFile
	streamErr error
	released  []*service.StreamFile
}

type startCall struct {
	url       string
	quality   string
	useAria2c bool
}

func (f *fakeDownloads) Info(ctx context.Context, rawURL string) (*domain.VideoInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoURL = rawURL
	return f.info, f.infoErr
}

func (f *fakeDownloads) Start(ctx context.Context, rawURL, quality string, useAria2c bool) (domain.JobID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls = append(f.startCalls, startCall{rawURL, quality, useAria2c})
	return f.startID, f.startErr
}

func (f *fakeDownloads) Status(ctx context.Context, id domain.JobID) (*domain.DownloadJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeDownloads) Stream(ctx context.Context, rawURL, quality string) (*service.StreamFile, error) {
	return f.stream, f.streamErr
}

func (f *fakeDownloads) Release(sf *service.StreamFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, sf)
}

// fakeFiles implements Files on top of a real directory.
type fakeFiles struct {
	dir     string
	listErr error

	mu     sync.Mutex
	folder *service.Folder
}

func newFakeFiles(t *testing.T) *fakeFiles {
	t.Helper()
	return &fakeFiles{dir: t.TempDir()}
}

func (f *fakeFiles) write(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.dir, name), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func (f *fakeFiles) List(ctx context.Context) ([]domain.FileInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FileInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.FileInfo{Name: e.Name(), DownloadURL: domain.FileDownloadURL(e.Name())})
	}
	return out, nil
}

func (f *fakeFiles) Path(ctx context.Context, name string) (string, error) {
	if filepath.Base(name) != name || name == ".." {
		return "", domain.ErrInvalidFilename
	}
	p := filepath.Join(f.dir, name)
	if _, err := os.Stat(p); err != nil {
		return "", domain.ErrFileNotFound
	}
	return p, nil
}

func (f *fakeFiles) Delete(ctx context.Context, name string) error {
	p, err := f.Path(ctx, name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func (f *fakeFiles) SetFolder(name string) service.Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.folder = &service.Folder{Name: name, UpdatedAt: time.Now()}
	return *f.folder
}

func (f *fakeFiles) Folder() (service.Folder, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.folder == nil {
		return service.Folder{}, false
	}
	return *f.folder, true
}

// fakeHistory implements History.
type fakeHistory struct {
	entries   []domain.HistoryEntry
	err       error
	lastLimit int
}

func (f *fakeHistory) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

// fakeStorage implements StorageStatser.
type fakeStorage struct {
	stats *service.StorageStats
	err   error
}

func (f *fakeStorage) Stats(ctx context.Context) (*service.StorageStats, error) {
	return f.stats, f.err
}
