package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iconidentify/vidgrab/internal/domain"
)

func TestFileHandler_List(t *testing.T) {
	files := newFakeFiles(t)
	files.write(t, "a.mp4", []byte("abc"))
	h := NewFileHandler(files, testLogger())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/files", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []domain.FileInfo
	decodeBody(t, w, &got)
	if len(got) != 1 || got[0].Name != "a.mp4" || got[0].DownloadURL != "/download-file/a.mp4" {
		t.Errorf("files = %+v", got)
	}
}

func TestFileHandler_ListEmptyIsArray(t *testing.T) {
	h := NewFileHandler(newFakeFiles(t), testLogger())
	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/files", nil))

	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestFileHandler_ListError(t *testing.T) {
	files := newFakeFiles(t)
	files.listErr = errors.New("disk gone")
	h := NewFileHandler(files, testLogger())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/files", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestFileHandler_Serve(t *testing.T) {
	files := newFakeFiles(t)
	files.write(t, "new clip.mp4", []byte("video bytes"))
	h := NewFileHandler(files, testLogger())

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/download-file/new%20clip.mp4", nil), "filename", "new%20clip.mp4")
	w := httptest.NewRecorder()
	h.Serve(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="new clip.mp4"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "video bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
	if w.Header().Get("Content-Type") == "" {
		t.Error("Content-Type should be set")
	}
}

func TestFileHandler_ServeErrors(t *testing.T) {
	tests := []struct {
		name       string
		param      string
		wantStatus int
	}{
		{"missing", "gone.mp4", http.StatusNotFound},
		{"traversal", "..%2Fsecret", http.StatusBadRequest},
		{"bad escape", "%zz", http.StatusBadRequest},
		{"empty", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewFileHandler(newFakeFiles(t), testLogger())
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/download-file/x", nil), "filename", tt.param)
			w := httptest.NewRecorder()
			h.Serve(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestFileHandler_Delete(t *testing.T) {
	files := newFakeFiles(t)
	files.write(t, "a.mp4", []byte("abc"))
	h := NewFileHandler(files, testLogger())

	w := httptest.NewRecorder()
	h.Delete(w, withURLParam(httptest.NewRequest(http.MethodDelete, "/files/a.mp4", nil), "filename", "a.mp4"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	decodeBody(t, w, &body)
	if body["success"] != true {
		t.Errorf("body = %v", body)
	}
	if _, err := os.Stat(filepath.Join(files.dir, "a.mp4")); !os.IsNotExist(err) {
		t.Error("file should be removed")
	}

	w = httptest.NewRecorder()
	h.Delete(w, withURLParam(httptest.NewRequest(http.MethodDelete, "/files/a.mp4", nil), "filename", "a.mp4"))
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestFileHandler_Folder(t *testing.T) {
	h := NewFileHandler(newFakeFiles(t), testLogger())

	w := httptest.NewRecorder()
	h.GetFolder(w, httptest.NewRequest(http.MethodGet, "/config/folder", nil))
	var unset map[string]any
	decodeBody(t, w, &unset)
	if v, ok := unset["folderName"]; !ok || v != nil {
		t.Errorf("unset folderName = %v, want null", v)
	}
	if unset["message"] == "" {
		t.Error("unset folder should carry a hint message")
	}

	w = httptest.NewRecorder()
	h.SetFolder(w, httptest.NewRequest(http.MethodPost, "/config/folder", strings.NewReader(`{"folderName":"Videos"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("set status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.GetFolder(w, httptest.NewRequest(http.MethodGet, "/config/folder", nil))
	var set map[string]any
	decodeBody(t, w, &set)
	if set["folderName"] != "Videos" || set["updatedAt"] == nil {
		t.Errorf("folder = %v", set)
	}
}

func TestFileHandler_SetFolderValidation(t *testing.T) {
	h := NewFileHandler(newFakeFiles(t), testLogger())

	w := httptest.NewRecorder()
	h.SetFolder(w, httptest.NewRequest(http.MethodPost, "/config/folder", strings.NewReader(`{"folderName":""}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if got := errorBody(t, w); got != "folderName is required" {
		t.Errorf("error = %q", got)
	}
}
