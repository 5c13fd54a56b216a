// Package logging configures the process-wide zerolog logger and hands out
// component-scoped children. Nothing in this module reads a package-level
// logger from inside a pure function; every component receives its
// zerolog.Logger at construction time (see spec design note on global
// singletons).
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Init configures the root logger. logPath, when non-empty, also appends
// JSON lines to that file; level follows CL_LOG_LEVEL's enum
// (trace/debug/info/warn/error).
func Init(logPath, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stdout
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = io.MultiWriter(os.Stdout, f)
		}
	}

	lvl := parseLevel(level)
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with the owning component, the
// way intelligencedev-manifold's observability package tags
// request-scoped loggers.
func Component(root zerolog.Logger, name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}
