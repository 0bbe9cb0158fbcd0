package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// FileHandler is an slog.Handler that batches ERROR+ records into the
// line-oriented side error log (timestamp - message). Writes are
// best-effort and must never block or fail callers: a sink error is
// reported to stderr and the batch dropped.
type FileHandler struct {
	path   string
	mu     sync.Mutex
	buffer []string
	ticker *time.Ticker
	done   chan struct{}
}

func NewFileHandler(path string) *FileHandler {
	h := &FileHandler{
		path:   path,
		buffer: make([]string, 0, 50),
		ticker: time.NewTicker(5 * time.Second),
		done:   make(chan struct{}),
	}
	go h.flushLoop()
	return h
}

func (h *FileHandler) flushLoop() {
	for {
		select {
		case <-h.ticker.C:
			h.flush()
		case <-h.done:
			h.flush()
			return
		}
	}
}

func (h *FileHandler) flush() {
	h.mu.Lock()
	if len(h.buffer) == 0 {
		h.mu.Unlock()
		return
	}
	batch := h.buffer
	h.buffer = make([]string, 0, 50)
	h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error log open failed: %v (%d entries dropped)\n", err, len(batch))
		return
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(batch, "\n") + "\n"); err != nil {
		fmt.Fprintf(os.Stderr, "error log write failed: %v\n", err)
	}
}

// Stop flushes pending entries and ends the flush loop.
func (h *FileHandler) Stop() {
	h.ticker.Stop()
	close(h.done)
}

// Enabled only handles ERROR and above.
func (h *FileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *FileHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Time.UTC().Format(time.RFC3339))
	b.WriteString(" - ")
	b.WriteString(record.Message)
	record.Attrs(func(a slog.Attr) bool {
		b.WriteString(fmt.Sprintf(" %s=%v", a.Key, a.Value.Any()))
		return true
	})

	h.mu.Lock()
	h.buffer = append(h.buffer, b.String())
	h.mu.Unlock()
	return nil
}

func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }

func (h *FileHandler) WithGroup(name string) slog.Handler { return h }
