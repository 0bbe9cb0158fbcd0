// Package database implements the shared JSON-file-backed data store.
//
// Multiple independent processes (three bots plus the webhook server)
// mutate one document concurrently with no database engine underneath.
// Correctness rests on a cross-process lock sentinel plus an atomic
// load-mutate-save cycle: every mutation runs inside Update, which
// serializes writers across process boundaries. Read accessors that
// only need a recent snapshot bypass the lock and say so in their doc
// comments.
package database

import (
	"log/slog"
	"time"

	"github.com/iaguu/axion-central-bot/internal/models"
)

// Options configures a Database handle.
type Options struct {
	// Path is the document file. The lock sentinel lives at Path + ".lock".
	Path string
	// AdminID is the external identity exempt from lockdown.
	AdminID string

	// Lock tuning; zero values take the package defaults
	// (50 attempts, 20ms backoff, 10s staleness).
	LockRetries int
	LockBackoff time.Duration
	LockStale   time.Duration
}

// Database is a handle on the shared document. Handles are cheap;
// every process opens its own against the same path.
type Database struct {
	path    string
	adminID string
	lock    *FileLock
}

// Open returns a handle with default lock tuning.
func Open(path string) *Database {
	return New(Options{Path: path})
}

// New returns a handle with the given options.
func New(opts Options) *Database {
	lm := NewFileLock(opts.Path + ".lock")
	if opts.LockRetries > 0 {
		lm.retries = opts.LockRetries
	}
	if opts.LockBackoff > 0 {
		lm.backoff = opts.LockBackoff
	}
	if opts.LockStale > 0 {
		lm.staleAfter = opts.LockStale
	}
	return &Database{path: opts.Path, adminID: opts.AdminID, lock: lm}
}

// Update runs fn inside the cross-process lock as one atomic
// load-mutate-save cycle. The document is persisted only when fn
// returns nil, so a failing mutation never writes half-applied state.
// The lock is released on every exit path.
func (db *Database) Update(fn func(doc *models.Document) error) error {
	h, err := db.lock.Acquire()
	if err != nil {
		// Best-effort record; the error log handler owns the sink.
		slog.Error("document lock not acquired", "path", db.path, "error", err)
		return err
	}
	defer db.lock.Release(h)

	doc := db.load()
	if err := fn(doc); err != nil {
		return err
	}
	return db.save(doc)
}

// View runs fn against a lock-free snapshot of the document. The
// snapshot may be slightly stale relative to an in-flight write;
// callers needing strict freshness must use Update.
func (db *Database) View(fn func(doc *models.Document)) {
	fn(db.load())
}

// Ping verifies the store is usable: the lock can be taken and the
// document parses.
func (db *Database) Ping() error {
	h, err := db.lock.Acquire()
	if err != nil {
		return err
	}
	defer db.lock.Release(h)
	db.load()
	return nil
}

// nowMillis is stubbed in tests that exercise time-based invariants.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

func nowStamp() string { return time.Now().UTC().Format(time.RFC3339) }
