package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestGetLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"trace", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"fatal", slog.LevelError},
		{" error ", slog.LevelError},
		// Edge cases
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}

	for _, tc := range tests {
		got := GetLevel(tc.input)
		if got != tc.expected {
			t.Errorf("GetLevel(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestCreateHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	h, err := CreateHandler(&buf, "info", "json")
	if err != nil {
		t.Fatalf("CreateHandler failed: %v", err)
	}
	logger := slog.New(h)

	logger.Debug("header:parsed")
	logger.Info("header:checked", slog.String("path", "digameVersion.h"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug filtered): %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "header:checked" {
		t.Errorf("msg = %v, want %q", rec["msg"], "header:checked")
	}
	if rec["path"] != "digameVersion.h" {
		t.Errorf("path = %v, want %q", rec["path"], "digameVersion.h")
	}
}

func TestCreateHandlerText(t *testing.T) {
	for _, format := range []string{"text", "", "logfmt", "LOGFMT"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			h, err := CreateHandler(&buf, "warn", format)
			if err != nil {
				t.Fatalf("CreateHandler(%q) failed: %v", format, err)
			}
			logger := slog.New(h)

			logger.Info("gen:skipped")
			logger.Warn("gen:stale-header", slog.String("want", "0990"))

			out := buf.String()
			if strings.Contains(out, "gen:skipped") {
				t.Errorf("info record written at warn level: %q", out)
			}
			if !strings.Contains(out, "gen:stale-header") || !strings.Contains(out, "0990") {
				t.Errorf("warn record missing: %q", out)
			}
		})
	}
}

func TestCreateHandlerUnknownFormat(t *testing.T) {
	_, err := CreateHandler(&bytes.Buffer{}, "info", "xml")
	if err == nil {
		t.Error("expected error for unknown format")
	}
}
