package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
)

// ErrLockTimeout means the document lock could not be acquired within
// the retry budget. The attempted mutation did not happen.
var ErrLockTimeout = errors.New("database: lock timeout")

const (
	defaultLockRetries = 50
	defaultLockBackoff = 20 * time.Millisecond
	defaultLockStale   = 10 * time.Second
)

// lockInfo is written into the sentinel so an operator inspecting a
// stuck lock can see who holds it.
type lockInfo struct {
	PID   int    `json:"pid"`
	Owner string `json:"owner"`
	TS    int64  `json:"ts"`
}

// LockHandle represents a held document lock.
type LockHandle struct {
	path  string
	owner string
}

// FileLock implements cross-process mutual exclusion through a
// sentinel file created with O_EXCL. Presence of the file is the lock;
// its age is the staleness signal. A sentinel older than staleAfter is
// treated as abandoned by a crashed holder and reclaimed.
type FileLock struct {
	path       string
	retries    int
	backoff    time.Duration
	staleAfter time.Duration
}

func NewFileLock(path string) *FileLock {
	return &FileLock{
		path:       path,
		retries:    defaultLockRetries,
		backoff:    defaultLockBackoff,
		staleAfter: defaultLockStale,
	}
}

// Acquire attempts the exclusive create, reclaiming stale sentinels
// and sleeping a fixed backoff between attempts. The wait is a plain
// blocking sleep: the lock protects cross-process contention, and the
// retry budget bounds the worst case at about one second.
func (m *FileLock) Acquire() (*LockHandle, error) {
	for i := 0; i < m.retries; i++ {
		f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			info := lockInfo{PID: os.Getpid(), Owner: uuid.NewString(), TS: time.Now().UnixMilli()}
			if b, merr := json.Marshal(info); merr == nil {
				_, _ = f.Write(b)
			}
			_ = f.Close()
			return &LockHandle{path: m.path, owner: info.Owner}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("database: create lock sentinel: %w", err)
		}
		if st, serr := os.Stat(m.path); serr == nil && time.Since(st.ModTime()) > m.staleAfter {
			// Holder is gone or hung; reclaim and retry immediately.
			_ = os.Remove(m.path)
			continue
		}
		time.Sleep(m.backoff)
	}
	return nil, ErrLockTimeout
}

// Release removes the sentinel. Callers must release on every exit
// path; the transactional layer does it with defer.
func (m *FileLock) Release(h *LockHandle) {
	if h == nil {
		return
	}
	_ = os.Remove(h.path)
}
