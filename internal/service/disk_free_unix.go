//go:build !windows

package service

import (
	"os"

	"golang.org/x/sys/unix"
)

// DiskUsage returns total and available bytes on the volume holding path.
func DiskUsage(path string) (total, free uint64) {
	stat, err := os.Stat(path)
	if err != nil || !stat.IsDir() {
		return 0, 0
	}

	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return 0, 0
	}

	return uint64(fs.Blocks) * uint64(fs.Bsize), uint64(fs.Bavail) * uint64(fs.Bsize)
}
