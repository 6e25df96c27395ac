package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/iconidentify/vidgrab/internal/api"
	"github.com/iconidentify/vidgrab/internal/api/handler"
	"github.com/iconidentify/vidgrab/internal/config"
	"github.com/iconidentify/vidgrab/internal/downloader"
	"github.com/iconidentify/vidgrab/internal/repository"
	"github.com/iconidentify/vidgrab/internal/service"
	"github.com/iconidentify/vidgrab/internal/worker"
	"github.com/iconidentify/vidgrab/pkg/threads"
	"github.com/iconidentify/vidgrab/pkg/ytdlp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vidgrab %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting vidgrab",
		"version", Version,
		"build_time", BuildTime,
	)

	if err := os.MkdirAll(cfg.Storage.TempPath, 0755); err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}

	// Repositories
	jobRepo := repository.NewInMemoryJobRepository(cfg.Jobs.MaxEntries)
	fileRepo, err := repository.NewFilesystemFileRepository(cfg.Storage.DownloadsPath)
	if err != nil {
		return fmt.Errorf("open downloads directory: %w", err)
	}

	var historyRepo repository.HistoryRepository = repository.NopHistoryRepository{}
	if cfg.History.DBPath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		sqlRepo, err := repository.NewSQLiteHistoryRepository(ctx, cfg.History.DBPath, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		historyRepo = sqlRepo
		logger.Info("download history enabled", "path", cfg.History.DBPath)
	}
	defer historyRepo.Close()

	// External tools and clients
	wd, _ := os.Getwd()
	ytdlpPath := ytdlp.LocateBinary(cfg.YtDlp.Path, wd)
	tool := ytdlp.New(ytdlpPath, logger)
	versionCtx, cancelVersion := context.WithTimeout(context.Background(), 10*time.Second)
	if v, err := tool.Version(versionCtx); err != nil {
		logger.Warn("yt-dlp is not runnable, non-Threads downloads will fail", "path", ytdlpPath, "error", err)
	} else {
		logger.Info("using yt-dlp", "path", ytdlpPath, "version", v, "aria2c", ytdlp.HasAria2c())
	}
	cancelVersion()

	resolver := threads.NewResolver(
		threads.NewEmbedClient(cfg.Threads, logger),
		threads.NewAPIClient(cfg.Threads, logger),
		logger,
	)
	fetcher := downloader.NewHTTPDownloader(cfg.Download, logger)

	// Services
	downloadSvc := service.NewDownloadService(jobRepo, fileRepo, historyRepo, tool, resolver, fetcher, cfg, logger)
	fileSvc := service.NewFileService(fileRepo, cfg.Storage, logger)

	// Handlers
	router := api.NewRouter(
		handler.NewDownloadHandler(downloadSvc, cfg.YtDlp.UseAria2c, logger),
		handler.NewFileHandler(fileSvc, logger),
		handler.NewHistoryHandler(historyRepo, logger),
		handler.NewHealthHandler(jobRepo, fileSvc, logger),
		handler.NewUIHandler(),
		cfg.Server.APIKey,
		logger,
	)
	if cfg.Server.APIKey == "" {
		logger.Warn("API key not set, all endpoints are public")
	}

	// Background workers
	pool := worker.NewPool(
		worker.Config{
			Workers:      cfg.Worker.Count,
			PollInterval: cfg.Worker.PollInterval,
		},
		jobRepo,
		downloadSvc,
		logger,
	)
	pool.Start()

	janitor := worker.NewJanitor(cfg.Storage.CleanupInterval, cfg.Jobs.TTL, jobRepo, fileSvc, logger)
	janitor.Start()

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	janitor.Stop()

	if err := pool.Stop(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}

	cleanTemp(cfg.Storage.TempPath, logger)

	logger.Info("shutdown complete")
	return nil
}

// cleanTemp removes leftover stream files whose release timers will not fire.
func cleanTemp(dir string, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			logger.Warn("failed to remove temp file", "file", e.Name(), "error", err)
		}
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
