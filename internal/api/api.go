// Package api exposes the onboarding engine over HTTP: session lifecycle,
// turn submission, and health, wired together with the timer, checkpoint
// store, and the idle-session sweeper.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UniNest/NestGuide/internal/flow"
	"github.com/UniNest/NestGuide/internal/genai"
	"github.com/UniNest/NestGuide/internal/profile"
	"github.com/UniNest/NestGuide/internal/scheduler"
	"github.com/UniNest/NestGuide/internal/store"
)

const (
	// DefaultAddr is the default API listen address.
	DefaultAddr = ":8080"
	// DefaultSessionTTL is how long a session may sit idle before the
	// sweeper discards it.
	DefaultSessionTTL = 30 * time.Minute
	// defaultSweepSpec runs the idle sweep every five minutes.
	defaultSweepSpec = "*/5 * * * *"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Opts holds API server configuration.
type Opts struct {
	Addr       string
	SessionTTL time.Duration
	SweepSpec  string
}

// Option configures API Opts.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithSessionTTL sets the idle-session time-to-live.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.SessionTTL = ttl }
}

// WithSweepSpec overrides the idle-sweep cron expression.
func WithSweepSpec(spec string) Option {
	return func(o *Opts) { o.SweepSpec = spec }
}

// Server holds the HTTP surface and its collaborators.
type Server struct {
	registry   *flow.Registry
	controller *flow.Controller
	router     *flow.Router
	timer      flow.Timer
	httpServer *http.Server
}

// NewServer assembles the HTTP server over an already-wired engine.
func NewServer(addr string, registry *flow.Registry, controller *flow.Controller, router *flow.Router, timer flow.Timer) *Server {
	s := &Server{
		registry:   registry,
		controller: controller,
		router:     router,
		timer:      timer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/messages", s.handlePostMessage)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run wires the whole engine from options and serves until ctx is cancelled.
func Run(ctx context.Context, genaiOpts []genai.Option, profileOpts []profile.Option, storeOpts []store.Option, apiOpts []Option) error {
	opts := Opts{Addr: DefaultAddr, SessionTTL: DefaultSessionTTL, SweepSpec: defaultSweepSpec}
	for _, opt := range apiOpts {
		opt(&opts)
	}

	genaiClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}
	profileClient, err := profile.NewClient(profileOpts...)
	if err != nil {
		return fmt.Errorf("failed to create profile client: %w", err)
	}
	checkpoints, err := openStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	defer checkpoints.Close()

	timer := flow.NewSimpleTimer()
	defer timer.Stop()

	registry := flow.NewRegistry()
	reveals := flow.NewRevealScheduler(timer)
	controller := flow.NewController(genaiClient, profileClient, reveals,
		flow.WithCheckpoints(checkpoints),
		flow.WithOnComplete(func(s *flow.Session) {
			// The checkpoint is only for resuming an unfinished flow.
			if err := checkpoints.DeleteCheckpoint(context.Background(), s.Token); err != nil {
				slog.Warn("api.Run: checkpoint cleanup failed", "sessionID", s.ID, "error", err)
			}
		}),
	)
	router := flow.NewRouter(profileClient, reveals, checkpoints)

	sched := scheduler.NewScheduler()
	if _, err := sched.AddJob(opts.SweepSpec, scheduler.SweepIdleSessions(registry, timer, opts.SessionTTL)); err != nil {
		return fmt.Errorf("failed to register idle sweep: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	srv := NewServer(opts.Addr, registry, controller, router, timer)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api.Run: listening", "addr", opts.Addr)
		if err := srv.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("api.Run: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

// openStore picks the checkpoint backend from the DSN: Postgres URLs go to
// Postgres, anything else is a SQLite path, and no DSN at all means
// in-memory only.
func openStore(storeOpts []store.Option) (store.Store, error) {
	var opts store.Opts
	for _, opt := range storeOpts {
		opt(&opts)
	}
	switch {
	case opts.DSN == "":
		slog.Warn("api.openStore: no DSN configured, checkpoints are in-memory only")
		return store.NewInMemoryStore(), nil
	case strings.HasPrefix(opts.DSN, "postgres://") || strings.HasPrefix(opts.DSN, "postgresql://"):
		return store.NewPostgresStore(storeOpts...)
	default:
		return store.NewSQLiteStore(storeOpts...)
	}
}
