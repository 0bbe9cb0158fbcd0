package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFileLock(t *testing.T) *FileLock {
	t.Helper()
	m := NewFileLock(filepath.Join(t.TempDir(), "doc.json.lock"))
	m.retries = 5
	m.backoff = 5 * time.Millisecond
	return m
}

func TestLockAcquireRelease(t *testing.T) {
	m := testFileLock(t)

	h, err := m.Acquire()
	require.NoError(t, err)
	require.NotNil(t, h)

	_, err = os.Stat(m.path)
	require.NoError(t, err, "sentinel should exist while held")

	m.Release(h)
	_, err = os.Stat(m.path)
	assert.True(t, os.IsNotExist(err), "sentinel should be gone after release")
}

func TestLockContentionTimesOut(t *testing.T) {
	m := testFileLock(t)

	h, err := m.Acquire()
	require.NoError(t, err)
	defer m.Release(h)

	other := NewFileLock(m.path)
	other.retries = 3
	other.backoff = 5 * time.Millisecond

	_, err = other.Acquire()
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestLockReacquireAfterRelease(t *testing.T) {
	m := testFileLock(t)

	h, err := m.Acquire()
	require.NoError(t, err)
	m.Release(h)

	h2, err := m.Acquire()
	require.NoError(t, err)
	m.Release(h2)
}

func TestLockStaleReclaim(t *testing.T) {
	m := testFileLock(t)
	m.staleAfter = 50 * time.Millisecond

	_, err := m.Acquire()
	require.NoError(t, err)

	// Simulate a crashed holder: sentinel left behind, aging past the
	// staleness threshold.
	old := time.Now().Add(-time.Second)
	require.NoError(t, os.Chtimes(m.path, old, old))

	second := NewFileLock(m.path)
	second.retries = 3
	second.backoff = 5 * time.Millisecond
	second.staleAfter = 50 * time.Millisecond

	h2, err := second.Acquire()
	require.NoError(t, err, "stale sentinel should be reclaimed")
	second.Release(h2)
}

func TestLockFreshSentinelNotReclaimed(t *testing.T) {
	m := testFileLock(t)

	h, err := m.Acquire()
	require.NoError(t, err)
	defer m.Release(h)

	second := NewFileLock(m.path)
	second.retries = 2
	second.backoff = time.Millisecond
	second.staleAfter = time.Minute

	_, err = second.Acquire()
	assert.ErrorIs(t, err, ErrLockTimeout)

	_, err = os.Stat(m.path)
	assert.NoError(t, err, "held sentinel must survive a failed acquirer")
}
