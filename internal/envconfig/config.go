// Package envconfig reads the RECURRENT_* environment variables.
//
// Every variable has a typed getter with a sensible default, so callers
// never touch os.Getenv directly and the full set can be listed in CLI
// help via AsMap.
package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LogLevel returns the log level.
// Configurable via RECURRENT_DEBUG: 0/false = info (default),
// 1/true = debug, higher integers lower the threshold further.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("RECURRENT_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// Store returns the experiment tracking backend, "memory" or "sqlite".
// Configurable via RECURRENT_STORE. Default: memory.
func Store() string {
	if s := Var("RECURRENT_STORE"); s != "" {
		return s
	}
	return "memory"
}

// StorePath returns the SQLite database path used when the sqlite store
// backend is selected. Configurable via RECURRENT_STORE_PATH.
// Default: runs.db in the working directory.
func StorePath() string {
	if s := Var("RECURRENT_STORE_PATH"); s != "" {
		return s
	}
	return "runs.db"
}

// Var returns an environment variable stripped of surrounding whitespace
// and quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// EnvVar describes one environment variable for usage listings.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every RECURRENT_* variable with its current value and
// description.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"RECURRENT_DEBUG":      {"RECURRENT_DEBUG", LogLevel(), "Show additional debug information (e.g. RECURRENT_DEBUG=1)"},
		"RECURRENT_STORE":      {"RECURRENT_STORE", Store(), "Experiment tracking backend: memory or sqlite (default \"memory\")"},
		"RECURRENT_STORE_PATH": {"RECURRENT_STORE_PATH", StorePath(), "SQLite database path for the sqlite store (default \"runs.db\")"},
	}
}
