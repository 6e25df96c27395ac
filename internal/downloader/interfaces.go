package downloader

import (
	"context"
	"io"
)

// Downloader fetches media content from URLs.
type Downloader interface {
	// Download fetches url and returns the content reader and its size
	// (-1 when unknown). Caller is responsible for closing the reader.
	Download(ctx context.Context, url string) (io.ReadCloser, int64, error)
}
