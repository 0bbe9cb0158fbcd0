package database

import (
	"log/slog"
	"time"

	"github.com/iaguu/axion-central-bot/internal/models"
)

// AddLog appends one action to the bounded audit ring. Audit entries
// are informational: a failed write is logged and swallowed so it
// never blocks business logic. Transactional.
func (db *Database) AddLog(action string) {
	err := db.Update(func(doc *models.Document) error {
		doc.Audit = append(doc.Audit, models.AuditEntry{
			T: time.Now().Format("02/01/2006 15:04:05"),
			A: action,
		})
		if n := len(doc.Audit); n > models.MaxAuditEntries {
			doc.Audit = doc.Audit[n-models.MaxAuditEntries:]
		}
		return nil
	})
	if err != nil {
		slog.Warn("audit write dropped", "action", action, "error", err)
	}
}

// Logs returns the most recent entries, oldest first. limit <= 0
// returns the whole ring. Read-only snapshot.
func (db *Database) Logs(limit int) []models.AuditEntry {
	var out []models.AuditEntry
	db.View(func(doc *models.Document) {
		entries := doc.Audit
		if limit > 0 && len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
		out = append(out, entries...)
	})
	return out
}

// FetchTimeoutAction prefixes the entries written when an outbound
// request attempt is lost to a network error. Every process records
// them here so the webhook's metrics endpoint can count them.
const FetchTimeoutAction = "fetch timeout: "

// RecordFetchTimeout logs one lost request attempt. Matches the
// OnTimeout hook signature of the HTTP clients.
func (db *Database) RecordFetchTimeout(url string) {
	db.AddLog(FetchTimeoutAction + url)
}

// ClearLogs empties the audit ring. Transactional.
func (db *Database) ClearLogs() error {
	return db.Update(func(doc *models.Document) error {
		doc.Audit = []models.AuditEntry{}
		return nil
	})
}
