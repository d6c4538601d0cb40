package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RunLogPattern matches the per-run daemon logs, including diagnostic copies
// under the debug directory. The keepmeprivate.log pointer does not match.
const RunLogPattern = "keepmeprivate-*.log"

// PruneRunLogs deletes run logs in logDir and logDir/debug whose modification
// time is more than retentionDays old, and returns how many were removed.
// The active run log is never removed. retentionDays <= 0 keeps everything.
func PruneRunLogs(logger *slog.Logger, logDir string, retentionDays int, active string) int {
	if retentionDays <= 0 || logDir == "" {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep := absPath(active)

	removed := 0
	for _, dir := range []string{logDir, filepath.Join(logDir, "debug")} {
		for _, path := range expiredRunLogs(dir, cutoff) {
			if path == keep {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check ownership of paths.log_dir"),
					String(FieldImpact, "old run log stays on disk"),
				)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		logger.Info("old run logs pruned",
			String(FieldEventType, "log_pruned"),
			Int("removed", removed),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}

func expiredRunLogs(dir string, cutoff time.Time) []string {
	matches, err := filepath.Glob(filepath.Join(dir, RunLogPattern))
	if err != nil {
		return nil
	}
	var expired []string
	for _, match := range matches {
		info, err := os.Lstat(match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			expired = append(expired, absPath(match))
		}
	}
	return expired
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
