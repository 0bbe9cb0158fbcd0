package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// backupRetention is how long corruption backups of the document file
// are kept before pruning.
const backupRetention = 30 * 24 * time.Hour

// StartBackupCleanup runs a daily goroutine that prunes corruption
// backups (<docPath>.corrupted.*.bak) older than the retention window.
func StartBackupCleanup(docPath string, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pruneBackups(docPath)
			case <-done:
				return
			}
		}
	}()
}

func pruneBackups(docPath string) {
	matches, err := filepath.Glob(docPath + ".corrupted.*.bak")
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-backupRetention)
	removed := 0
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil || st.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(m); err != nil {
			slog.Error("backup cleanup failed", "file", m, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("backup cleanup completed", "deleted", removed)
	}
}
