package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"keepmeprivate/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(data)
}

func TestConsoleLoggerFormatsComponentAndMonitor(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithMonitor(context.Background(), "camera")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "monitor")).Info("state changed", logging.Bool("connected", true))

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO [monitor] camera – state changed connected=true") {
		t.Fatalf("unexpected console line: %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("probe result", logging.String("status_path", "/tmp/status.json"))

	content := readLog(t, logPath)
	if !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
	if !strings.Contains(content, "status_path=/tmp/status.json") {
		t.Fatalf("expected debug-only key at debug level, got %q", content)
	}
}

func TestConsoleLoggerHidesDebugOnlyKeysAtInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("status written", logging.String("status_path", "/tmp/status.json"), logging.String("key", "camera"))

	content := readLog(t, logPath)
	if strings.Contains(content, "status_path") {
		t.Fatalf("expected debug-only key hidden at info, got %q", content)
	}
	if !strings.Contains(content, "key=camera") {
		t.Fatalf("expected regular key, got %q", content)
	}
}

func TestJSONLoggerUsesUTCTimestamps(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("probe failed", logging.String(logging.FieldEventType, "probe_failed"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	ts, _ := entry["ts"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil || !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected RFC3339 UTC timestamp, got %q", ts)
	}
	if entry[logging.FieldEventType] != "probe_failed" {
		t.Fatalf("unexpected event type: %v", entry[logging.FieldEventType])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range tests {
		if got := logging.ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "store write failed", "status_write_failed", logging.String(logging.FieldImpact, "dashboard shows stale data"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "status_write_failed" {
		t.Fatalf("missing event type: %v", entry)
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatalf("missing error hint: %v", entry)
	}
	if entry[logging.FieldImpact] != "dashboard shows stale data" {
		t.Fatalf("caller impact overridden: %v", entry[logging.FieldImpact])
	}
}

func TestWithSessionStampsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.WithSession(slog.New(slog.NewJSONHandler(&buf, nil)), "run-123").With("extra", "value")
	logger.Info("started")

	output := buf.String()
	if !strings.Contains(output, `"session_id":"run-123"`) || !strings.Contains(output, `"extra":"value"`) {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestTeeLoggerWritesToAllHandlers(t *testing.T) {
	var primary, secondary bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&primary, &slog.HandlerOptions{Level: slog.LevelWarn}))
	extra := slog.NewJSONHandler(&secondary, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := logging.TeeLogger(base, extra)
	logger.Info("info only in secondary")
	logger.Warn("warn in both")

	if strings.Contains(primary.String(), "info only") {
		t.Fatalf("primary should filter info: %s", primary.String())
	}
	if !strings.Contains(primary.String(), "warn in both") {
		t.Fatalf("primary missing warn: %s", primary.String())
	}
	if strings.Count(secondary.String(), "\n") != 2 {
		t.Fatalf("secondary should receive both records: %s", secondary.String())
	}
}

func TestTeeLoggerWithNilBaseAndNoHandlersIsSilent(t *testing.T) {
	logger := logging.TeeLogger(nil)
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected noop logger")
	}
}

func TestPruneRunLogsRemovesExpiredRunLogs(t *testing.T) {
	dir := t.TempDir()
	debugDir := filepath.Join(dir, "debug")
	if err := os.MkdirAll(debugDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	oldPath := filepath.Join(dir, "keepmeprivate-old.log")
	oldDebug := filepath.Join(debugDir, "keepmeprivate-old.log")
	activePath := filepath.Join(dir, "keepmeprivate-active.log")
	freshPath := filepath.Join(dir, "keepmeprivate-fresh.log")
	otherPath := filepath.Join(dir, "notes.log")
	for _, path := range []string{oldPath, oldDebug, activePath, freshPath, otherPath} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{oldPath, oldDebug, activePath, otherPath} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if got := logging.PruneRunLogs(logging.NewNop(), dir, 3, activePath); got != 2 {
		t.Fatalf("expected 2 logs pruned, got %d", got)
	}
	for _, path := range []string{oldPath, oldDebug} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", path, err)
		}
	}
	for _, path := range []string{activePath, freshPath, otherPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}

	if got := logging.PruneRunLogs(logging.NewNop(), dir, 0, activePath); got != 0 {
		t.Fatalf("retention 0 should keep everything, pruned %d", got)
	}
}
