package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"screenwatch/internal/config"
	"screenwatch/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg, "screenwatch.log")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started")

	if !strings.Contains(readLog(t, filepath.Join(cfg.Paths.LogDir, "screenwatch.log")), "daemon started") {
		t.Fatal("expected message in log file")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerLayout(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "watchdog").Info("watching",
		logging.String(logging.FieldWatchDir, "/tmp/Guild Wars/Screens"),
		logging.Int("screens", 5),
		logging.Float64("percent", 500.0/999.0),
	)
	logger.Debug("suppressed")

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO watchdog: watching") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if !strings.Contains(content, `watch_dir="/tmp/Guild Wars/Screens"`) {
		t.Fatalf("expected quoted path, got %q", content)
	}
	if !strings.Contains(content, "screens=5") {
		t.Fatalf("expected int attr, got %q", content)
	}
	if !strings.Contains(content, "percent=0.5 ") && !strings.HasSuffix(strings.TrimSpace(content), "percent=0.5") {
		t.Fatalf("expected trimmed float, got %q", content)
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("component should be pulled into the prefix, got %q", content)
	}
	if strings.Contains(content, "suppressed") {
		t.Fatalf("debug line should be filtered at info level, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerSessionTag(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		OutputPaths: []string{logPath},
		SessionID:   "1f0c2d9e-0000-4000-8000-000000000000",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "daemon").Info("screenwatch daemon started")

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO [1f0c2d9e] daemon: screenwatch daemon started") {
		t.Fatalf("expected session tag before component, got %q", content)
	}
	if strings.Contains(content, "session_id=") {
		t.Fatalf("session id should be lifted into the tag, got %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "warn",
		OutputPaths: []string{logPath},
		SessionID:   "run-1",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "watch open failed", "watch_open_failed",
		logging.String(logging.FieldErrorHint, "check that the screenshot folder exists"),
	)

	var entry map[string]any
	line := strings.TrimSpace(readLog(t, logPath))
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	want := map[string]string{
		"level":                "warn",
		"msg":                  "watch open failed",
		logging.FieldEventType: "watch_open_failed",
		logging.FieldErrorHint: "check that the screenshot folder exists",
		logging.FieldImpact:    "screenshot count or rotation may be out of date",
		logging.FieldSessionID: "run-1",
	}
	for key, value := range want {
		if entry[key] != value {
			t.Errorf("%s = %v, want %q", key, entry[key], value)
		}
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("expected ts key")
	}
}

func TestRunLogNameMatchesPattern(t *testing.T) {
	name := logging.RunLogName(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if name != "screenwatch-20260301T120000.000Z.log" {
		t.Fatalf("unexpected run log name %q", name)
	}
	ok, err := filepath.Match(logging.RunLogPattern, name)
	if err != nil || !ok {
		t.Fatalf("run log name %q should match %q", name, logging.RunLogPattern)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "screenwatch-old.log")
	active := filepath.Join(dir, "screenwatch-active.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, active, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		past := time.Now().AddDate(0, 0, -40)
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), dir, "screenwatch-*.log", 30, active)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err = %v", err)
	}
	for _, path := range []string{active, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", filepath.Base(path), err)
		}
	}

	if got := logging.CleanupOldLogs(nil, dir, "*", 0); got != 0 {
		t.Fatalf("retention 0 should disable pruning, removed %d", got)
	}
}
