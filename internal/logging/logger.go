package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables read by [ConfigFromEnv].
const (
	EnvLevel  = "VEIL_LOG_LEVEL"
	EnvFormat = "VEIL_LOG_FORMAT"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	Output     io.Writer
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     os.Stderr,
	}
}

// New creates a new zerolog logger with the given configuration
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(out).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel parses the levels accepted by the logging-level setting and
// VEIL_LOG_LEVEL: trace, debug, info, warn (or warning) and error.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// ConfigFromEnv returns [DefaultConfig] updated from the environment.
// VEIL_LOG_LEVEL: trace, debug, info, warn, error (default: info)
// VEIL_LOG_FORMAT: json, console (default: console)
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if level, err := ParseLevel(os.Getenv(EnvLevel)); err == nil {
		cfg.Level = level
	}

	switch format := os.Getenv(EnvFormat); format {
	case "json", "console":
		cfg.Format = format
	}

	return cfg
}

// NewFromEnv creates a logger based on environment variables
func NewFromEnv() zerolog.Logger {
	return New(ConfigFromEnv())
}
