package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/vidgrab/internal/domain"
)

// FilesystemFileRepository implements FileRepository on a single directory.
type FilesystemFileRepository struct {
	dir string
}

// NewFilesystemFileRepository creates the directory if needed.
func NewFilesystemFileRepository(dir string) (*FilesystemFileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create downloads directory: %w", err)
	}
	return &FilesystemFileRepository{dir: dir}, nil
}

// Dir returns the downloads directory.
func (r *FilesystemFileRepository) Dir() string {
	return r.dir
}

// ValidateFilename rejects names that could escape the downloads directory.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		strings.ContainsRune(name, 0) {
		return domain.ErrInvalidFilename
	}
	return nil
}

// List returns regular files newest first.
func (r *FilesystemFileRepository) List(ctx context.Context) ([]domain.FileInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read downloads directory: %w", err)
	}

	files := make([]domain.FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.FileInfo{
			Name:        e.Name(),
			Size:        humanize.Bytes(uint64(info.Size())),
			SizeBytes:   info.Size(),
			DownloadURL: domain.FileDownloadURL(e.Name()),
			CreatedAt:   info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Path resolves name inside the downloads directory.
func (r *FilesystemFileRepository) Path(ctx context.Context, name string) (string, error) {
	if err := ValidateFilename(name); err != nil {
		return "", err
	}

	path := filepath.Join(r.dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return "", domain.ErrFileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	return path, nil
}

// Delete removes a file.
func (r *FilesystemFileRepository) Delete(ctx context.Context, name string) error {
	path, err := r.Path(ctx, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files last modified before now-maxAge.
func (r *FilesystemFileRepository) CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	return removeOlderThan(r.dir, maxAge)
}

// Newest returns the most recently modified file name.
func (r *FilesystemFileRepository) Newest(ctx context.Context) (string, error) {
	files, err := r.List(ctx)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", domain.ErrFileNotFound
	}
	return files[0].Name, nil
}

// removeOlderThan deletes regular files in dir older than maxAge.
func removeOlderThan(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// CleanupDir removes files in dir older than maxAge. Used for the temp
// directory, which has no repository of its own.
func CleanupDir(dir string, maxAge time.Duration) (int, error) {
	return removeOlderThan(dir, maxAge)
}
