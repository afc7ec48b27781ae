package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/UniNest/NestGuide/internal/api"
	"github.com/UniNest/NestGuide/internal/genai"
	"github.com/UniNest/NestGuide/internal/profile"
	"github.com/UniNest/NestGuide/internal/store"
	"github.com/UniNest/NestGuide/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for NestGuide state data
	DefaultStateDir = "/var/lib/nestguide"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "nestguide.db"
)

// Config carries environment-derived configuration.
type Config struct {
	DatabaseURL   string
	StateDir      string
	OpenAIKey     string
	ProfileAPIURL string
	APIAddr       string
	SessionTTL    time.Duration
	Debug         bool
}

// Flags carries the parsed command line flags.
type Flags struct {
	stateDir   *string
	dbDSN      *string
	openaiKey  *string
	profileURL *string
	apiAddr    *string
}

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)

	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	genaiOpts := buildGenAIOptions(flags)
	profileOpts := buildProfileOptions(flags)
	storeOpts := buildStoreOptions(flags)
	apiOpts := buildAPIOptions(flags, config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping NestGuide with configured modules",
		"api_addr", *flags.apiAddr, "dsn_set", *flags.dbDSN != "", "session_ttl", config.SessionTTL)
	if err := api.Run(ctx, genaiOpts, profileOpts, storeOpts, apiOpts); err != nil {
		slog.Error("NestGuide exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("NestGuide shutdown complete")
}

// initializeLogger sets up structured logging.
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("NESTGUIDE_STATE_DIR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		ProfileAPIURL: os.Getenv("PROFILE_API_URL"),
		APIAddr:       os.Getenv("API_ADDR"),
		SessionTTL:    util.ParseDurationEnv("SESSION_TTL", api.DefaultSessionTTL),
		Debug:         util.ParseBoolEnv("DEBUG", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}

	// Without a database URL, checkpoints go to SQLite in the state directory.
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"NESTGUIDE_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"PROFILE_API_URL_SET", config.ProfileAPIURL != "",
		"API_ADDR", config.APIAddr,
		"SESSION_TTL", config.SessionTTL)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:   flag.String("state-dir", config.StateDir, "state directory for NestGuide data (overrides $NESTGUIDE_STATE_DIR)"),
		dbDSN:      flag.String("db-dsn", config.DatabaseURL, "database DSN for the checkpoint store (overrides $DATABASE_URL)"),
		openaiKey:  flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		profileURL: flag.String("profile-api-url", config.ProfileAPIURL, "profile backend base URL (overrides $PROFILE_API_URL)"),
		apiAddr:    flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}

	flag.Parse()

	// Follow an overridden state directory when the DSN was left at its default.
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if strings.HasPrefix(*flags.dbDSN, "postgres://") || strings.HasPrefix(*flags.dbDSN, "postgresql://") {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return err
	}
	return nil
}

func buildGenAIOptions(flags Flags) []genai.Option {
	var opts []genai.Option
	if *flags.openaiKey != "" {
		opts = append(opts, genai.WithAPIKey(*flags.openaiKey))
	}
	return opts
}

func buildProfileOptions(flags Flags) []profile.Option {
	var opts []profile.Option
	if *flags.profileURL != "" {
		opts = append(opts, profile.WithBaseURL(*flags.profileURL))
	}
	return opts
}

func buildStoreOptions(flags Flags) []store.Option {
	var opts []store.Option
	if *flags.dbDSN != "" {
		opts = append(opts, store.WithDSN(*flags.dbDSN))
	}
	return opts
}

func buildAPIOptions(flags Flags, config Config) []api.Option {
	opts := []api.Option{api.WithSessionTTL(config.SessionTTL)}
	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	return opts
}
