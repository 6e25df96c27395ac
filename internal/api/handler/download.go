package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/internal/service"
)

// Downloads is the download orchestration used by DownloadHandler.
type Downloads interface {
	Info(ctx context.Context, rawURL string) (*domain.VideoInfo, error)
	Start(ctx context.Context, rawURL, quality string, useAria2c bool) (domain.JobID, error)
	Status(ctx context.Context, id domain.JobID) (*domain.DownloadJob, error)
	Stream(ctx context.Context, rawURL, quality string) (*service.StreamFile, error)
	Release(f *service.StreamFile)
}

// DownloadHandler handles video info, download jobs and stream downloads.
type DownloadHandler struct {
	svc       Downloads
	useAria2c bool
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewDownloadHandler creates a new download handler. useAria2c is the
// default for requests that do not set it.
func NewDownloadHandler(svc Downloads, useAria2c bool, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		svc:       svc,
		useAria2c: useAria2c,
		validate:  newValidator(),
		logger:    logger.With("component", "download_handler"),
	}
}

// InfoRequest is the JSON body for POST /video/info.
type InfoRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// DownloadRequest is the JSON body for POST /download.
type DownloadRequest struct {
	URL       string `json:"url" validate:"required,max=2048"`
	Quality   string `json:"quality" validate:"omitempty,oneof=best 1080p 720p 480p 360p audio"`
	UseAria2c *bool  `json:"useAria2c"`
}

// StreamRequest is the JSON body for POST /download/stream.
type StreamRequest struct {
	URL     string `json:"url" validate:"required,max=2048"`
	Quality string `json:"quality" validate:"omitempty,oneof=best 1080p 720p 480p 360p audio"`
}

// StartResponse is returned after a download is queued.
type StartResponse struct {
	DownloadID domain.JobID `json:"downloadId"`
	Message    string       `json:"message"`
}

// Info handles GET /video/info?url= and POST /video/info.
func (h *DownloadHandler) Info(w http.ResponseWriter, r *http.Request) {
	var req InfoRequest
	if r.Method == http.MethodGet {
		req.URL = r.URL.Query().Get("url")
		if err := h.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationError(err).Error())
			return
		}
	} else if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.svc.Info(r.Context(), req.URL)
	if err != nil {
		status := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("video info failed", "url", req.URL, "error", err)
			writeError(w, status, "could not fetch video info: "+err.Error())
			return
		}
		writeError(w, status, errorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// Start handles POST /download.
func (h *DownloadHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	useAria2c := h.useAria2c
	if req.UseAria2c != nil {
		useAria2c = *req.UseAria2c
	}

	id, err := h.svc.Start(r.Context(), req.URL, req.Quality, useAria2c)
	if err != nil {
		if errors.Is(err, domain.ErrQueueFull) {
			h.logger.Warn("download rejected, queue full", "url", req.URL)
			w.Header().Set("Retry-After", "30")
			writeError(w, http.StatusServiceUnavailable, domain.ErrQueueFull.Error())
			return
		}
		status := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("failed to queue download", "url", req.URL, "error", err)
			writeError(w, status, "failed to start download")
			return
		}
		writeError(w, status, errorMessage(err))
		return
	}

	writeJSON(w, http.StatusAccepted, StartResponse{
		DownloadID: id,
		Message:    "Download queued",
	})
}

// Status handles GET /download/status/{downloadID}.
func (h *DownloadHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := domain.JobID(chi.URLParam(r, "downloadID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing download ID")
		return
	}

	job, err := h.svc.Status(r.Context(), id)
	if err != nil {
		writeError(w, errorStatus(err), errorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Stream handles POST /download/stream. The file is downloaded while the
// request waits and is then served as an attachment.
func (h *DownloadHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req StreamRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger := h.logger.With("url", req.URL)
	logger.Info("stream download started")

	sf, err := h.svc.Stream(r.Context(), req.URL, req.Quality)
	if err != nil {
		status := errorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("stream download failed", "error", err)
			writeError(w, status, "could not download video: "+err.Error())
			return
		}
		writeError(w, status, errorMessage(err))
		return
	}
	defer h.svc.Release(sf)

	serveAttachment(w, r, sf.Path, sf.Filename, logger)
}

// serveAttachment writes the file at path with a download disposition.
func serveAttachment(w http.ResponseWriter, r *http.Request, path, name string, logger *slog.Logger) {
	f, err := os.Open(path)
	if err != nil {
		logger.Error("failed to open file", "path", path, "error", err)
		writeError(w, http.StatusNotFound, domain.ErrFileNotFound.Error())
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.Error("failed to stat file", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}
