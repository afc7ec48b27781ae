// Package util holds small helpers shared across packages.
package util

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// ParseBoolEnv reads a boolean environment variable, falling back to
// defaultValue when unset or unparseable.
func ParseBoolEnv(name string, defaultValue bool) bool {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("ParseBoolEnv: invalid value, using default", "name", name, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

// ParseDurationEnv reads a duration environment variable (Go duration
// syntax, e.g. "30m"), falling back to defaultValue when unset or invalid.
func ParseDurationEnv(name string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("ParseDurationEnv: invalid value, using default", "name", name, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}
