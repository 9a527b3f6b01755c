package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelist/internal/infra/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestOpenOutputStdout(t *testing.T) {
	w, closer, err := openOutput("stdout")
	if err != nil {
		t.Fatalf("openOutput(stdout): %v", err)
	}
	defer closer()
	if w != os.Stdout {
		t.Error("expected os.Stdout")
	}
}

func TestOpenOutputStderrDefault(t *testing.T) {
	w, closer, err := openOutput("")
	if err != nil {
		t.Fatalf("openOutput(''): %v", err)
	}
	defer closer()
	if w != os.Stderr {
		t.Error("expected os.Stderr for empty output")
	}
}

func TestOpenOutputDiscard(t *testing.T) {
	w, closer, err := openOutput("discard")
	if err != nil {
		t.Fatalf("openOutput(discard): %v", err)
	}
	defer closer()
	if w != io.Discard {
		t.Error("expected io.Discard")
	}
}

func TestOpenOutputCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "reelist.log")

	w, closer, err := openOutput(path)
	if err != nil {
		t.Fatalf("openOutput(file): %v", err)
	}
	if _, err := w.Write([]byte("line\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := closer(); err != nil {
		t.Fatalf("closer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "line\n" {
		t.Errorf("file content = %q", string(data))
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	cfg := config.LoggerConfig{Level: "info", Format: "text", Output: path}
	log, closer, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("file output test", "key", "value")
	if err := closer(); err != nil {
		t.Fatalf("closer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "file output test") {
		t.Error("log file should contain the logged message")
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	cfg := config.LoggerConfig{Level: "info", Format: "json", Output: path}
	log, closer, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("json test")
	if err := closer(); err != nil {
		t.Fatalf("closer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"json test"`) {
		t.Errorf("expected JSON output, got %q", string(data))
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	cfg := config.LoggerConfig{Level: "warn", Format: "text", Output: path}
	log, closer, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("should be filtered")
	log.Warn("should appear")
	if err := closer(); err != nil {
		t.Fatalf("closer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "should be filtered") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("warn message should appear at warn level")
	}
}
