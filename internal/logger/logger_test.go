package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func fileOnly(level, path string, asJSON bool) Options {
	return Options{
		Level: level,
		JSON:  asJSON,
		File:  FileConfig{Path: path, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1},
	}
}

func TestNoOutputsIsNop(t *testing.T) {
	if err := InitWithOptions(Options{Level: "debug"}); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	if Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected logger without outputs to discard everything")
	}
	Info("dropped")
	Sync()
}

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "test.log")

	// 1MB is the smallest size lumberjack allows.
	err := InitWithOptions(Options{
		Level: "debug",
		File:  FileConfig{Path: logFile, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1},
	})
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Sync()

	longMessage := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infof("Log entry %d: %s", i, longMessage)
	}
	Sync()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}

	var rotated []string
	sawMain := false
	for _, f := range files {
		switch {
		case f.Name() == "test.log":
			sawMain = true
		case strings.HasPrefix(f.Name(), "test-20") && strings.HasSuffix(f.Name(), ".log"):
			rotated = append(rotated, f.Name())
		}
	}
	if !sawMain {
		t.Error("main log file does not exist")
	}
	if len(rotated) == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
		{"bogus", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(dir, tt.level+".log")
			if err := InitWithOptions(fileOnly(tt.level, logFile, false)); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			for _, exp := range tt.expected {
				if !strings.Contains(string(content), exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(string(content), exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "json.log")
	if err := InitWithOptions(fileOnly("info", logFile, true)); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	Info("model compiled", zap.String("model", "horse"), zap.Int("parts", 3))
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", content, err)
	}
	if entry["msg"] != "model compiled" || entry["model"] != "horse" || entry["level"] != "INFO" {
		t.Errorf("unexpected entry %v", entry)
	}
	if caller, _ := entry["caller"].(string); !strings.HasPrefix(caller, "logger/logger_test.go") {
		t.Errorf("expected caller in this test file, got %q", caller)
	}
}

func TestWriter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "writer.log")
	if err := InitWithOptions(fileOnly("info", logFile, false)); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	w := Writer("http", zapcore.InfoLevel)
	n, err := fmt.Fprint(w, "first line\nsecond line\n")
	if err != nil || n != len("first line\nsecond line\n") {
		t.Fatalf("unexpected write result %d, %v", n, err)
	}
	fmt.Fprint(Writer("http", zapcore.DebugLevel), "hidden\n")
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), content)
	}
	if !strings.Contains(lines[0], "http") || !strings.HasSuffix(lines[0], "first line") {
		t.Errorf("unexpected first line %q", lines[0])
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/test.log")

	if cfg.Path != "/tmp/test.log" {
		t.Errorf("expected path /tmp/test.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 || cfg.MaxBackups != 3 || cfg.MaxAgeDays != 7 {
		t.Errorf("unexpected rotation settings %+v", cfg)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
