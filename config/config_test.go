package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	t.Setenv(EnvHeaderPath, "")
	t.Setenv(EnvHeaderGuard, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")

	tests := []struct {
		name     string
		get      func() string
		expected string
	}{
		{"HeaderPath", HeaderPath, DefaultHeaderPath},
		{"HeaderGuard", HeaderGuard, "__DIGAME_VERSION_H__"},
		{"LogLevel", LogLevel, DefaultLogLevel},
		{"LogFormat", LogFormat, DefaultLogFormat},
	}

	for _, tc := range tests {
		if got := tc.get(); got != tc.expected {
			t.Errorf("%s() = %q, want %q", tc.name, got, tc.expected)
		}
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv(EnvHeaderPath, "  src/digameVersion.h  ")
	t.Setenv(EnvHeaderGuard, "VERSION_H")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")

	if got := HeaderPath(); got != "src/digameVersion.h" {
		t.Errorf("HeaderPath() = %q, want trimmed override", got)
	}
	if got := HeaderGuard(); got != "VERSION_H" {
		t.Errorf("HeaderGuard() = %q, want %q", got, "VERSION_H")
	}
	if got := LogLevel(); got != "debug" {
		t.Errorf("LogLevel() = %q, want %q", got, "debug")
	}
	if got := LogFormat(); got != "json" {
		t.Errorf("LogFormat() = %q, want %q", got, "json")
	}
}

func TestWhitespaceOverrideUsesDefault(t *testing.T) {
	t.Setenv(EnvLogLevel, "   ")

	if got := LogLevel(); got != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want default %q", got, DefaultLogLevel)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	data := "# tool settings\nDIGAME_HEADER=\"firmware/digameVersion.h\"\nDIGAME_LOG_LEVEL=info\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	// Already set in the environment: must win over the file
	t.Setenv(EnvLogLevel, "error")
	// Registers cleanup so the value loaded from the file does not leak
	t.Setenv(EnvHeaderPath, "")
	os.Unsetenv(EnvHeaderPath)

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}

	if got := HeaderPath(); got != "firmware/digameVersion.h" {
		t.Errorf("HeaderPath() = %q, want value from .env", got)
	}
	if got := LogLevel(); got != "error" {
		t.Errorf("LogLevel() = %q, want environment value to win", got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.env")

	if err := LoadEnvFile(missing, ""); err != nil {
		t.Errorf("LoadEnvFile(missing) = %v, want nil", err)
	}
}
