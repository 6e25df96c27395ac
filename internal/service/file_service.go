package service

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/iconidentify/vidgrab/internal/config"
	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/internal/repository"
)

// FileService exposes the downloads directory and housekeeping.
type FileService struct {
	files  repository.FileRepository
	cfg    config.StorageConfig
	logger *slog.Logger

	mu     sync.RWMutex
	folder *Folder
}

// Folder is the client's chosen download folder label.
type Folder struct {
	Name      string    `json:"folderName"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewFileService creates a new file service.
func NewFileService(files repository.FileRepository, cfg config.StorageConfig, logger *slog.Logger) *FileService {
	return &FileService{
		files:  files,
		cfg:    cfg,
		logger: logger.With("component", "file_service"),
	}
}

// List returns downloaded files, newest first.
func (s *FileService) List(ctx context.Context) ([]domain.FileInfo, error) {
	return s.files.List(ctx)
}

// Path resolves a downloaded file for serving.
func (s *FileService) Path(ctx context.Context, name string) (string, error) {
	return s.files.Path(ctx, name)
}

// Delete removes a downloaded file.
func (s *FileService) Delete(ctx context.Context, name string) error {
	if err := s.files.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("file deleted", "filename", name)
	return nil
}

// Cleanup removes downloads older than the max age and orphaned temp files.
func (s *FileService) Cleanup(ctx context.Context) (int, error) {
	removed, err := s.files.CleanupOlderThan(ctx, s.cfg.FileMaxAge)
	if err != nil {
		return removed, err
	}

	// Stream files are released after TempFileTTL; anything older than the
	// download max age was never released.
	tmp, err := repository.CleanupDir(s.cfg.TempPath, s.cfg.FileMaxAge)
	if err != nil {
		return removed, err
	}
	return removed + tmp, nil
}

// SetFolder stores the client's preferred download folder label.
func (s *FileService) SetFolder(name string) Folder {
	f := Folder{Name: name, UpdatedAt: time.Now()}
	s.mu.Lock()
	s.folder = &f
	s.mu.Unlock()
	s.logger.Info("download folder set", "folder", name)
	return f
}

// Folder returns the stored folder label. ok is false when none was set.
func (s *FileService) Folder() (f Folder, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.folder == nil {
		return Folder{}, false
	}
	return *s.folder, true
}

// StorageStats describes the downloads volume and process.
type StorageStats struct {
	DownloadsPath  string  `json:"downloads_path"`
	FileCount      int     `json:"file_count"`
	FilesBytes     int64   `json:"files_bytes"`
	DiskTotalBytes uint64  `json:"disk_total_bytes"`
	DiskFreeBytes  uint64  `json:"disk_free_bytes"`
	DiskUsedPct    float64 `json:"disk_used_pct"`
	NumGoroutines  int     `json:"num_goroutines"`
	MemAllocMB     uint64  `json:"mem_alloc_mb"`
	Timestamp      string  `json:"timestamp"`
}

// Stats reports disk and file usage for the downloads directory.
func (s *FileService) Stats(ctx context.Context) (*StorageStats, error) {
	files, err := s.files.List(ctx)
	if err != nil {
		return nil, err
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &StorageStats{
		DownloadsPath: s.files.Dir(),
		FileCount:     len(files),
		NumGoroutines: runtime.NumGoroutine(),
		MemAllocMB:    m.Alloc / 1024 / 1024,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	for _, f := range files {
		stats.FilesBytes += f.SizeBytes
	}

	stats.DiskTotalBytes, stats.DiskFreeBytes = DiskUsage(s.files.Dir())
	if stats.DiskTotalBytes > 0 {
		used := stats.DiskTotalBytes - stats.DiskFreeBytes
		stats.DiskUsedPct = float64(used) / float64(stats.DiskTotalBytes) * 100
	}
	return stats, nil
}
