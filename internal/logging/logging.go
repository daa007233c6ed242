// Package logging installs the colored slog handler used by every binary.
package logging

import (
	"io"
	log "log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Level maps a level name to a slog level. Unknown names fall back to info.
func Level(name string) log.Level {
	if lvl, ok := logLevelMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return log.LevelInfo
}

// New returns a tint logger writing to w.
func New(w io.Writer, level string, color bool) *log.Logger {
	return log.New(tint.NewHandler(w, &tint.Options{
		Level:      Level(level),
		TimeFormat: time.TimeOnly,
		NoColor:    !color,
	}))
}

// Setup builds a stdout logger and makes it the slog default. Colors are
// only used when stdout is a terminal.
func Setup(level string) *log.Logger {
	logger := New(os.Stdout, level, isTerminal(os.Stdout))
	log.SetDefault(logger)
	return logger
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
