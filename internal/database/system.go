package database

import "github.com/iaguu/axion-central-bot/internal/models"

// SetLockdown flips the global usage gate. Transactional.
func (db *Database) SetLockdown(on bool) error {
	return db.Update(func(doc *models.Document) error {
		doc.System.Lockdown = on
		return nil
	})
}

// Lockdown reports the gate. Read-only snapshot.
func (db *Database) Lockdown() bool {
	var on bool
	db.View(func(doc *models.Document) {
		on = doc.System.Lockdown
	})
	return on
}

// SetPool sets the ledger pool to an absolute value. Transactional.
func (db *Database) SetPool(v float64) error {
	return db.Update(func(doc *models.Document) error {
		doc.System.TotalPool = v
		return nil
	})
}

// AddPool applies a delta to the pool and returns the new value in one
// transaction, so concurrent adjustments never lose updates.
func (db *Database) AddPool(delta float64) (float64, error) {
	var out float64
	err := db.Update(func(doc *models.Document) error {
		doc.System.TotalPool += delta
		out = doc.System.TotalPool
		return nil
	})
	return out, err
}

// Pool reports the ledger pool. Read-only snapshot.
func (db *Database) Pool() float64 {
	var v float64
	db.View(func(doc *models.Document) {
		v = doc.System.TotalPool
	})
	return v
}
