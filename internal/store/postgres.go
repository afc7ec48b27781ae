package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/UniNest/NestGuide/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

const (
	maxOpenConns    = 25
	maxIdleConns    = 25
	connMaxLifetime = 5 * time.Minute
)

// PostgresStore persists checkpoints in Postgres for multi-node deployments.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the Postgres database at the DSN and applies
// migrations.
func NewPostgresStore(options ...Option) (*PostgresStore, error) {
	var opts Opts
	for _, opt := range options {
		opt(&opts)
	}
	if opts.DSN == "" {
		return nil, errors.New("postgres store requires a DSN")
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply postgres migrations: %w", err)
	}

	slog.Info("PostgresStore: database ready")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveCheckpoint(ctx context.Context, userKey string, stage models.Stage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO onboarding_checkpoints (user_key, stage, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_key) DO UPDATE SET stage = EXCLUDED.stage, updated_at = EXCLUDED.updated_at`,
		userKey, int(stage), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCheckpoint(ctx context.Context, userKey string) (*Checkpoint, error) {
	var cp Checkpoint
	var stage int
	err := s.db.QueryRowContext(ctx,
		"SELECT user_key, stage, updated_at FROM onboarding_checkpoints WHERE user_key = $1",
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

func (s *PostgresStore) DeleteCheckpoint(ctx context.Context, userKey string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM onboarding_checkpoints WHERE user_key = $1", userKey)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
