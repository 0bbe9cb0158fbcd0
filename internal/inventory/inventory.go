// Package inventory manages the sidecar raw-inventory file backing
// the cards product category. The file is line-oriented, one opaque
// deliverable per line, operator-editable, and guarded by its own lock
// sentinel - it does not share a transaction with the main document.
// That gap is managed, not ignored: Reconcile reports the drift
// between this file and the product's stock queue so replenishment can
// correct it instead of the two silently diverging.
package inventory

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/iaguu/axion-central-bot/internal/database"
)

// Store is a handle on the sidecar file.
type Store struct {
	path string
	lock *database.FileLock
}

func New(path string) *Store {
	return &Store{path: path, lock: database.NewFileLock(path + ".lock")}
}

// Report compares the sidecar line count with the main document's
// stock queue for the backed product.
type Report struct {
	SidecarCount int
	StockCount   int
	// Drift is SidecarCount - StockCount; nonzero means the two files
	// have diverged.
	Drift int
}

func readLines(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: read %s: %w", path, err)
	}
	var lines []string
	for _, l := range strings.Split(string(raw), "\n") {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines, nil
}

func writeLines(path string, lines []string) error {
	tmp := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	data := ""
	if len(lines) > 0 {
		data = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		return fmt.Errorf("inventory: write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("inventory: rename into place: %w", err)
	}
	return nil
}

// Add appends raw items to the sidecar and returns the new count.
func (s *Store) Add(items []string) (int, error) {
	h, err := s.lock.Acquire()
	if err != nil {
		return 0, err
	}
	defer s.lock.Release(h)

	lines, err := readLines(s.path)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if err := writeLines(s.path, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Take removes and returns up to n items from the front of the file.
// Taking from an empty file returns an empty slice, never an error.
func (s *Store) Take(n int) ([]string, error) {
	h, err := s.lock.Acquire()
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(h)

	lines, err := readLines(s.path)
	if err != nil {
		return nil, err
	}
	if n > len(lines) {
		n = len(lines)
	}
	taken := lines[:n]
	if err := writeLines(s.path, lines[n:]); err != nil {
		return nil, err
	}
	return taken, nil
}

// Count reports how many raw items the sidecar holds.
func (s *Store) Count() (int, error) {
	lines, err := readLines(s.path)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Reconcile compares the sidecar against the product's stock queue in
// the main document and logs any drift. Read-only on both files.
func (s *Store) Reconcile(db *database.Database, productID string) (Report, error) {
	count, err := s.Count()
	if err != nil {
		return Report{}, err
	}
	stock := 0
	if p := db.ProductByID(productID); p != nil {
		stock = len(p.Stock)
	}
	rep := Report{SidecarCount: count, StockCount: stock, Drift: count - stock}
	if rep.Drift != 0 {
		slog.Warn("inventory drift detected", "product", productID, "sidecar", count, "stock", stock)
	}
	return rep, nil
}

// Replenish moves up to n raw items from the sidecar into the
// product's stock queue. The two files do not share a lock, so a crash
// between the take and the stock write can lose items; on a failed
// stock write the taken items are pushed back best-effort.
func (s *Store) Replenish(db *database.Database, productID string, n int) (int, error) {
	items, err := s.Take(n)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	prod, err := db.AddStock(productID, items)
	if err != nil || prod == nil {
		if _, backErr := s.Add(items); backErr != nil {
			slog.Error("replenish rollback failed, items lost", "product", productID, "count", len(items), "error", backErr)
		}
		if err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("inventory: unknown product %q", productID)
	}
	return len(items), nil
}
