package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/UniNest/NestGuide/internal/models"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists checkpoints in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the SQLite database at the
// DSN path and applies migrations.
func NewSQLiteStore(options ...Option) (*SQLiteStore, error) {
	var opts Opts
	for _, opt := range options {
		opt(&opts)
	}
	if opts.DSN == "" {
		return nil, errors.New("sqlite store requires a database path")
	}

	if dir := filepath.Dir(opts.DSN); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite migrations: %w", err)
	}

	slog.Info("SQLiteStore: database ready", "path", opts.DSN)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, userKey string, stage models.Stage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO onboarding_checkpoints (user_key, stage, updated_at) VALUES (?, ?, ?)",
		userKey, int(stage), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCheckpoint(ctx context.Context, userKey string) (*Checkpoint, error) {
	var cp Checkpoint
	var stage int
	err := s.db.QueryRowContext(ctx,
		"SELECT user_key, stage, updated_at FROM onboarding_checkpoints WHERE user_key = ?",
		userKey).Scan(&cp.UserKey, &stage, &cp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	cp.Stage = models.Stage(stage)
	return &cp, nil
}

func (s *SQLiteStore) DeleteCheckpoint(ctx context.Context, userKey string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM onboarding_checkpoints WHERE user_key = ?", userKey)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
