// Package logging provides structured logging for the engine.
//
// All components log through zerolog with a "component" field so that the
// interleaved output of the control loop, the wake-word engine and the
// playback workers stays attributable.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string
	// Console enables human-readable console output instead of JSON.
	Console bool
	// Output overrides the destination (default: stderr). Used in tests.
	Output io.Writer
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Console: true,
	}
}

var (
	root zerolog.Logger
	once sync.Once
)

// Setup configures the process-wide root logger. Safe to call more than
// once; only the first call wins.
func Setup(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)

		var out io.Writer = os.Stderr
		if cfg.Output != nil {
			out = cfg.Output
		}
		if cfg.Console {
			out = zerolog.ConsoleWriter{
				Out:        out,
				TimeFormat: time.Kitchen,
			}
		}

		root = zerolog.New(out).Level(level).With().Timestamp().Logger()
	})
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
