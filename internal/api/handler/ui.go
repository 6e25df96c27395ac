package handler

import (
	"net/http"

	"github.com/iconidentify/vidgrab/internal/domain"
	"github.com/iconidentify/vidgrab/pkg/ui"
)

// UIHandler serves the web UI and the API description.
type UIHandler struct{}

// NewUIHandler creates a new UI handler.
func NewUIHandler() *UIHandler {
	return &UIHandler{}
}

// Index serves the downloader page.
func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(ui.IndexHTML)
}

// APIDescription is returned by GET /api.
type APIDescription struct {
	Name               string            `json:"name"`
	Version            string            `json:"version"`
	Description        string            `json:"description"`
	Endpoints          map[string]string `json:"endpoints"`
	QualityOptions     []domain.Quality  `json:"qualityOptions"`
	SupportedPlatforms []string          `json:"supportedPlatforms"`
}

// API handles GET /api.
func (h *UIHandler) API(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIDescription{
		Name:        "vidgrab",
		Version:     "1.0.0",
		Description: "Download videos from YouTube, Facebook, TikTok, Threads and more",
		Endpoints: map[string]string{
			"GET /video/info?url=":          "Fetch video metadata",
			"POST /video/info":              "Fetch video metadata",
			"POST /download":                "Queue a download and return its ID",
			"GET /download/status/{id}":     "Poll download progress",
			"POST /download/stream":         "Download and stream the file in the response",
			"GET /download-file/{filename}": "Fetch a downloaded file",
			"GET /files":                    "List downloaded files",
			"DELETE /files/{filename}":      "Delete a downloaded file",
			"GET /config/folder":            "Get the download folder label",
			"POST /config/folder":           "Set the download folder label",
			"GET /history":                  "List completed downloads",
			"GET /stats":                    "Storage and runtime statistics",
		},
		QualityOptions:     domain.Qualities,
		SupportedPlatforms: domain.SupportedPlatforms,
	})
}
