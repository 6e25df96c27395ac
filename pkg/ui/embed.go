// Package ui holds the embedded web front page.
package ui

import (
	_ "embed"
)

// IndexHTML is the downloader page served at /.
//
//go:embed index.html
var IndexHTML []byte
