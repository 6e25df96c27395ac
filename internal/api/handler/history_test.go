package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iconidentify/vidgrab/internal/domain"
)

func TestHistoryHandler_List(t *testing.T) {
	now := time.Now()
	hist := &fakeHistory{entries: []domain.HistoryEntry{
		{ID: "dl_2", Filename: "b.mp4", Source: domain.SourceThreads, CompletedAt: now},
		{ID: "dl_1", Filename: "a.mp4", Source: domain.SourceYtDlp, CompletedAt: now.Add(-time.Minute)},
	}}
	h := NewHistoryHandler(hist, testLogger())

	tests := []struct {
		name      string
		query     string
		wantLimit int
		wantCount int
	}{
		{"default", "", 0, 2},
		{"limited", "?limit=1", 1, 1},
		{"capped", "?limit=100000", maxHistoryLimit, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.List(w, httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			var resp HistoryResponse
			decodeBody(t, w, &resp)
			if resp.Count != tt.wantCount || len(resp.Entries) != tt.wantCount {
				t.Errorf("count = %d, entries = %d, want %d", resp.Count, len(resp.Entries), tt.wantCount)
			}
			if hist.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", hist.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestHistoryHandler_InvalidLimit(t *testing.T) {
	h := NewHistoryHandler(&fakeHistory{}, testLogger())

	for _, q := range []string{"?limit=abc", "?limit=0", "?limit=-3"} {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/history"+q, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestHistoryHandler_Error(t *testing.T) {
	h := NewHistoryHandler(&fakeHistory{err: errors.New("database is locked")}, testLogger())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
