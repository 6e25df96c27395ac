package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/internal/service"
)

// Files is the file management used by FileHandler.
type Files interface {
	List(ctx context.Context) ([]domain.FileInfo, error)
	Path(ctx context.Context, name string) (string, error)
	Delete(ctx context.Context, name string) error
	SetFolder(name string) service.Folder
	Folder() (service.Folder, bool)
}

// FileHandler serves, lists and deletes downloaded files.
type FileHandler struct {
	files    Files
	validate *validator.Validate
	logger   *slog.Logger
}

// NewFileHandler creates a new file handler.
func NewFileHandler(files Files, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		files:    files,
		validate: newValidator(),
		logger:   logger.With("component", "file_handler"),
	}
}

// FolderRequest is the JSON body for POST /config/folder.
type FolderRequest struct {
	FolderName string `json:"folderName" validate:"required,max=255"`
}

// List handles GET /files.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list files", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// Serve handles GET /download-file/{filename}.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name, ok := h.filename(w, r)
	if !ok {
		return
	}

	path, err := h.files.Path(r.Context(), name)
	if err != nil {
		writeError(w, errorStatus(err), errorMessage(err))
		return
	}

	serveAttachment(w, r, path, name, h.logger)
}

// Delete handles DELETE /files/{filename}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, ok := h.filename(w, r)
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), name); err != nil {
		status := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("failed to delete file", "filename", name, "error", err)
			writeError(w, status, "failed to delete file")
			return
		}
		writeError(w, status, errorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "File deleted",
	})
}

// GetFolder handles GET /config/folder.
func (h *FileHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	folder, ok := h.files.Folder()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"folderName": nil,
			"message":    "No download folder selected",
		})
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// SetFolder handles POST /config/folder.
func (h *FileHandler) SetFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder := h.files.SetFolder(req.FolderName)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"folderName": folder.Name,
		"updatedAt":  folder.UpdatedAt,
		"message":    "Download folder: " + folder.Name,
	})
}

// filename returns the decoded {filename} path parameter.
func (h *FileHandler) filename(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidFilename.Error())
		return "", false
	}
	return name, true
}
