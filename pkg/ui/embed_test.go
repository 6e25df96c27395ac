package ui

import (
	"strings"
	"testing"
)

func TestIndexHTMLEmbedded(t *testing.T) {
	if len(IndexHTML) == 0 {
		t.Fatal("IndexHTML should not be empty")
	}

	html := string(IndexHTML)
	if !strings.HasPrefix(html, "<!DOCTYPE html>") {
		t.Error("IndexHTML should start with DOCTYPE declaration")
	}
	if !strings.Contains(html, "</html>") {
		t.Error("IndexHTML should be complete")
	}
}

func TestIndexHTMLCallsAPI(t *testing.T) {
	html := string(IndexHTML)

	for _, endpoint := range []string{
		"/video/info",
		"/download",
		"/download/status/",
		"/download/stream",
		"/download-file/",
		"/files",
		"/history",
	} {
		if !strings.Contains(html, endpoint) {
			t.Errorf("IndexHTML should call %s", endpoint)
		}
	}

	if !strings.Contains(html, "X-API-Key") {
		t.Error("IndexHTML should forward the API key header")
	}
}
