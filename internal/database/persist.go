package database

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/iaguu/axion-central-bot/internal/models"
)

const (
	parseRetries    = 3
	parseRetryDelay = 10 * time.Millisecond
)

// load reads the document from disk. A missing file yields a freshly
// persisted default document. Transient parse failures are retried, as
// a reader can race a writer mid-rename on filesystems without atomic
// visibility. A persistently unparseable file is archived to a
// timestamped backup and replaced by a default document: availability
// over a single bad read, with the data loss logged loudly rather than
// hidden.
func (db *Database) load() *models.Document {
	raw, err := os.ReadFile(db.path)
	if os.IsNotExist(err) {
		doc := models.NewDocument()
		if serr := db.save(doc); serr != nil {
			slog.Error("bootstrap document write failed", "path", db.path, "error", serr)
		}
		return doc
	}
	if err != nil {
		slog.Error("document read failed", "path", db.path, "error", err)
		return models.NewDocument()
	}

	var parseErr error
	for i := 0; i < parseRetries; i++ {
		doc := models.NewDocument()
		if parseErr = json.Unmarshal(raw, doc); parseErr == nil {
			doc.Normalize()
			return doc
		}
		time.Sleep(parseRetryDelay)
		if reread, rerr := os.ReadFile(db.path); rerr == nil {
			raw = reread
		}
	}

	db.archiveCorrupt(raw, parseErr)
	return models.NewDocument()
}

func (db *Database) archiveCorrupt(raw []byte, cause error) {
	backup := fmt.Sprintf("%s.corrupted.%d.bak", db.path, time.Now().UnixMilli())
	if err := os.WriteFile(backup, raw, 0o644); err != nil {
		slog.Error("corrupt document backup failed", "path", backup, "error", err)
	}
	slog.Error("document corrupt, falling back to default", "path", db.path, "backup", backup, "error", cause)
}

// save serializes the full document and renames it into place so a
// concurrent reader never observes a half-written file. The temp file
// is fsynced before the rename for durability across crashes.
func (db *Database) save(doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("database: marshal document: %w", err)
	}

	tmp := fmt.Sprintf("%s.%d.tmp", db.path, os.Getpid())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("database: create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("database: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("database: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("database: close temp file: %w", err)
	}
	if err := os.Rename(tmp, db.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("database: rename into place: %w", err)
	}
	return nil
}
