package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/subosito/gotenv"

	"digame/firmware/header"
)

// Defaults for tool configuration.
// These can be overridden by setting the corresponding environment variable,
// either in the process environment or in a .env file.
const (
	DefaultHeaderPath  = "digameVersion.h"
	DefaultHeaderGuard = header.DefaultGuard
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
)

// Environment variables read by this package.
const (
	EnvHeaderPath  = "DIGAME_HEADER"
	EnvHeaderGuard = "DIGAME_HEADER_GUARD"
	EnvLogLevel    = "DIGAME_LOG_LEVEL"
	EnvLogFormat   = "DIGAME_LOG_FORMAT"
)

// LoadEnvFile loads variables from the given .env files.
// Variables already present in the environment are never overridden, and
// a missing file is not an error.
func LoadEnvFile(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := gotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// HeaderPath returns the path of the firmware version header.
// Returns DefaultHeaderPath unless overridden via DIGAME_HEADER.
func HeaderPath() string {
	return lookup(EnvHeaderPath, DefaultHeaderPath)
}

// HeaderGuard returns the include guard written into generated headers.
func HeaderGuard() string {
	return lookup(EnvHeaderGuard, DefaultHeaderGuard)
}

// LogLevel returns the log level name (debug, info, warn, error).
func LogLevel() string {
	return lookup(EnvLogLevel, DefaultLogLevel)
}

// LogFormat returns the log format name (text, logfmt, json).
func LogFormat() string {
	return lookup(EnvLogFormat, DefaultLogFormat)
}

func lookup(key, def string) string {
	if override := strings.TrimSpace(os.Getenv(key)); override != "" {
		return override
	}
	return def
}
