// Package store persists onboarding stage checkpoints so an interrupted
// user resumes mid-flow instead of restarting. Implementations cover
// in-memory (tests and dev), SQLite (single-node default), and Postgres.
package store

import (
	"context"
	"time"

	"github.com/UniNest/NestGuide/internal/models"
)

// Checkpoint records how far a user got through onboarding.
type Checkpoint struct {
	UserKey   string
	Stage     models.Stage
	UpdatedAt time.Time
}

// Store is the checkpoint persistence interface. GetCheckpoint returns
// (nil, nil) when no checkpoint exists for the key.
type Store interface {
	SaveCheckpoint(ctx context.Context, userKey string, stage models.Stage) error
	GetCheckpoint(ctx context.Context, userKey string) (*Checkpoint, error)
	DeleteCheckpoint(ctx context.Context, userKey string) error
	Close() error
}

// Opts holds store configuration.
type Opts struct {
	// DSN is the database connection string. Postgres DSNs start with
	// postgres:// or postgresql://; anything else is treated as a SQLite
	// file path.
	DSN string
}

// Option configures store Opts.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}
