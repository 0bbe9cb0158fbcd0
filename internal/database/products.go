package database

import (
	"github.com/google/uuid"

	"github.com/iaguu/axion-central-bot/internal/models"
)

// ProductPatch is a partial product update; nil fields are untouched.
type ProductPatch struct {
	Name     *string
	Price    *float64
	Category *string
}

func findProduct(doc *models.Document, id string) *models.Product {
	for _, p := range doc.Store {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddProduct registers a product. An empty ID gets a generated one;
// stock always starts empty. Transactional.
func (db *Database) AddProduct(p models.Product) (models.Product, error) {
	var out models.Product
	err := db.Update(func(doc *models.Document) error {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.Stock = []string{}
		doc.Store = append(doc.Store, &p)
		out = p
		return nil
	})
	return out, err
}

// UpdateProduct merges a patch into the product and returns the
// result, or nil when the id is unknown. Transactional.
func (db *Database) UpdateProduct(id string, patch ProductPatch) (*models.Product, error) {
	var out *models.Product
	err := db.Update(func(doc *models.Document) error {
		p := findProduct(doc, id)
		if p == nil {
			return nil
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}

// DeleteProduct removes the product. It reports false for an unknown
// id rather than failing. Transactional.
func (db *Database) DeleteProduct(id string) (bool, error) {
	var removed bool
	err := db.Update(func(doc *models.Document) error {
		for i, p := range doc.Store {
			if p.ID == id {
				doc.Store = append(doc.Store[:i], doc.Store[i+1:]...)
				removed = true
				return nil
			}
		}
		return nil
	})
	return removed, err
}

// Products lists the catalog. Read-only snapshot.
func (db *Database) Products() []models.Product {
	var out []models.Product
	db.View(func(doc *models.Document) {
		for _, p := range doc.Store {
			out = append(out, *p)
		}
	})
	return out
}

// ProductByID returns a copy of the product or nil. Read-only snapshot.
func (db *Database) ProductByID(id string) *models.Product {
	var out *models.Product
	db.View(func(doc *models.Document) {
		if p := findProduct(doc, id); p != nil {
			cp := *p
			out = &cp
		}
	})
	return out
}

// AddStock appends items to the product's stock queue and returns the
// updated product, or nil when the id is unknown. Transactional.
func (db *Database) AddStock(id string, items []string) (*models.Product, error) {
	var out *models.Product
	err := db.Update(func(doc *models.Document) error {
		p := findProduct(doc, id)
		if p == nil {
			return nil
		}
		p.Stock = append(p.Stock, items...)
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}

// PopStock removes and returns the first queued stock item. It reports
// ok=false for an unknown product or an empty queue; it never blocks
// waiting for stock. Transactional, so concurrent pops never deliver
// the same item twice.
func (db *Database) PopStock(id string) (string, bool, error) {
	var item string
	var ok bool
	err := db.Update(func(doc *models.Document) error {
		p := findProduct(doc, id)
		if p == nil || len(p.Stock) == 0 {
			return nil
		}
		item, ok = p.Stock[0], true
		p.Stock = p.Stock[1:]
		return nil
	})
	return item, ok, err
}
