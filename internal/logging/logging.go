// Package logging wires the process-wide slog logger for the mapsim CLI.
//
// Records are written as text to stderr. The CLI keeps the default level at
// warn so pipeline output and the checklist stay readable; --debug lowers it.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Level names accepted by Configure.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levels = map[string]slog.Level{
	"":         slog.LevelInfo,
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// Configure replaces the default slog logger with a text handler on stderr
// that drops records below the named level.
func Configure(level string) error {
	lv, ok := levels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
	return nil
}
