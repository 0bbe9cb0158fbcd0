package database

import (
	"time"

	"github.com/iaguu/axion-central-bot/internal/models"
)

// RegisterInvestment appends one entry to the append-only investment
// ledger and returns it. Transactional.
func (db *Database) RegisterInvestment(data map[string]any) (models.Investment, error) {
	var inv models.Investment
	err := db.Update(func(doc *models.Document) error {
		inv = models.Investment{
			ID:        nowMillis(),
			Data:      data,
			Timestamp: time.Now().Format("02/01/2006 15:04:05"),
		}
		doc.Investments = append(doc.Investments, inv)
		return nil
	})
	return inv, err
}

// Investments returns the full ledger. Read-only snapshot.
func (db *Database) Investments() []models.Investment {
	var out []models.Investment
	db.View(func(doc *models.Document) {
		out = append(out, doc.Investments...)
	})
	return out
}
