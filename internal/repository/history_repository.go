package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/iconidentify/vidgrab/internal/domain"
)

//go:embed sql/migrations/*.sql
var embedMigrations embed.FS

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// SQLiteHistoryRepository implements HistoryRepository on SQLite.
type SQLiteHistoryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteHistoryRepository opens (or creates) the database at path and
// applies pending migrations.
func NewSQLiteHistoryRepository(ctx context.Context, path string, logger *slog.Logger) (*SQLiteHistoryRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// :memory: databases exist per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}

	logger.Info("download history enabled", "path", path)
	return &SQLiteHistoryRepository{db: db, logger: logger}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "sql/migrations")
}

// Add records a completed download. Re-adding an ID replaces the row.
func (r *SQLiteHistoryRepository) Add(ctx context.Context, e domain.HistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO download_history (id, url, title, filename, size_bytes, source, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), e.URL, e.Title, e.Filename, e.SizeBytes, string(e.Source), e.CompletedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (r *SQLiteHistoryRepository) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url, title, filename, size_bytes, source, completed_at
		FROM download_history
		ORDER BY completed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			e           domain.HistoryEntry
			id, source  string
			completedMs int64
		)
		if err := rows.Scan(&id, &e.URL, &e.Title, &e.Filename, &e.SizeBytes, &source, &completedMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.ID = domain.JobID(id)
		e.Source = domain.JobSource(source)
		e.CompletedAt = time.UnixMilli(completedMs)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (r *SQLiteHistoryRepository) Close() error {
	return r.db.Close()
}

// NopHistoryRepository discards history; used when history is disabled.
type NopHistoryRepository struct{}

func (NopHistoryRepository) Add(context.Context, domain.HistoryEntry) error { return nil }

func (NopHistoryRepository) List(context.Context, int) ([]domain.HistoryEntry, error) {
	return []domain.HistoryEntry{}, nil
}

func (NopHistoryRepository) Close() error { return nil }
