// Package logging builds the slog handlers used by the host tools.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	TextFormat   = "text"
	LogfmtFormat = "logfmt"
	JSONFormat   = "json"
)

// CreateHandler creates a [slog.Handler] writing to w from level and format names.
func CreateHandler(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	level := GetLevel(logLevel)

	switch strings.ToLower(logFormat) {
	case TextFormat, "":
		return log.NewWithOptions(w, log.Options{
			Level:     log.Level(level),
			Formatter: log.TextFormatter,
		}), nil
	case LogfmtFormat:
		return log.NewWithOptions(w, log.Options{
			Level:     log.Level(level),
			Formatter: log.LogfmtFormatter,
		}), nil
	case JSONFormat:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", logFormat)
	}
}

// GetLevel maps a level name to a [slog.Level]. Unknown names map to info.
func GetLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "fatal", "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "debug", "trace":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
