package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iconidentify/vidgrab/internal/domain"
)

func TestUIHandler_Index(t *testing.T) {
	handler := NewUIHandler()

	w := httptest.NewRecorder()
	handler.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/html; charset=utf-8")
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("response should contain HTML content")
	}
}

func TestUIHandler_API(t *testing.T) {
	handler := NewUIHandler()

	w := httptest.NewRecorder()
	handler.API(w, httptest.NewRequest(http.MethodGet, "/api", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var desc APIDescription
	decodeBody(t, w, &desc)
	if len(desc.QualityOptions) != len(domain.Qualities) {
		t.Errorf("qualityOptions = %v", desc.QualityOptions)
	}
	if len(desc.SupportedPlatforms) == 0 {
		t.Error("supportedPlatforms should not be empty")
	}
	if _, ok := desc.Endpoints["POST /download"]; !ok {
		t.Errorf("endpoints = %v", desc.Endpoints)
	}
}
