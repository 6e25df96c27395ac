package domain

import (
	"net/url"
	"strings"
	"time"
)

// VideoInfo is the metadata shown before downloading.
type VideoInfo struct {
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Uploader    string `json:"uploader"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ViewCount   *int64 `json:"viewCount,omitempty"`
	Description string `json:"description,omitempty"`
	// Type is the Threads media kind; empty for other platforms.
	Type string `json:"type,omitempty"`
}

// FileInfo describes a file in the downloads directory.
type FileInfo struct {
	Name        string    `json:"name"`
	Size        string    `json:"size"`
	SizeBytes   int64     `json:"sizeBytes"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryEntry is one completed download kept in the history database.
type HistoryEntry struct {
	ID          JobID     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"sizeBytes"`
	Source      JobSource `json:"source"`
	CompletedAt time.Time `json:"completedAt"`
}

// SupportedPlatforms lists the hosts accepted for download. Matching is by
// substring on the hostname.
var SupportedPlatforms = []string{
	"youtube.com", "youtu.be",
	"facebook.com", "fb.watch",
	"instagram.com",
	"tiktok.com",
	"twitter.com", "x.com",
	"vimeo.com",
	"dailymotion.com",
	"threads.net", "threads.com",
}

// ValidateURL checks that raw is an absolute http(s) URL on a supported
// platform.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range SupportedPlatforms {
		if strings.Contains(host, p) {
			return nil
		}
	}
	return ErrUnsupportedPlatform
}
