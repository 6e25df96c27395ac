package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/vidgrab/internal/api/handler"
	mw "github.com/iconidentify/vidgrab/internal/api/middleware"
)

// requestTimeout bounds JSON endpoints. File transfers are not bounded here;
// the server write timeout covers them.
const requestTimeout = 2 * time.Minute

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	downloadHandler *handler.DownloadHandler,
	fileHandler *handler.FileHandler,
	historyHandler *handler.HistoryHandler,
	healthHandler *handler.HealthHandler,
	uiHandler *handler.UIHandler,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS)

	// Unauthenticated
	r.Get("/", uiHandler.Index)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	r.Group(func(r chi.Router) {
		if apiKey != "" {
			r.Use(mw.APIKeyAuth(apiKey))
		}

		// Long-running transfers
		r.Post("/download/stream", downloadHandler.Stream)
		r.Get("/download-file/{filename}", fileHandler.Serve)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/api", uiHandler.API)
			r.Get("/stats", healthHandler.Stats)

			r.Get("/video/info", downloadHandler.Info)
			r.Post("/video/info", downloadHandler.Info)
			r.Post("/download", downloadHandler.Start)
			r.Get("/download/status/{downloadID}", downloadHandler.Status)

			r.Get("/files", fileHandler.List)
			r.Delete("/files/{filename}", fileHandler.Delete)

			r.Get("/config/folder", fileHandler.GetFolder)
			r.Post("/config/folder", fileHandler.SetFolder)

			r.Get("/history", historyHandler.List)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
