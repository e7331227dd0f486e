// Package logging builds the structured logger used by the command line tool.
//
// Output goes to stderr by default so stdout stays reserved for the run summary:
//
//	logger, err := logging.New(logging.Config{Level: "debug"})
//	logger.Info("analysis started", "comments", n)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the level, format and destination of the logger. The zero value
// writes info and above to stderr as text.
type Config struct {
	Level  string    `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON   bool      `yaml:"json"`
	Output io.Writer `yaml:"-"`
}

// ParseLevel maps a level name to its slog level. An empty name is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), nil
}
