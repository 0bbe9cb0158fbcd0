package database

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iaguu/axion-central-bot/internal/models"
)

func TestAddProductGeneratesID(t *testing.T) {
	db := testDB(t)

	p, err := db.AddProduct(models.Product{Name: "Card Pack", Price: 10, Category: models.CategoryCards})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Empty(t, p.Stock)

	fixed, err := db.AddProduct(models.Product{ID: "vip", Name: "VIP", Price: 50, Category: models.CategoryVIP})
	require.NoError(t, err)
	assert.Equal(t, "vip", fixed.ID)

	assert.Len(t, db.Products(), 2)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	db := testDB(t)

	p, err := db.AddProduct(models.Product{Name: "Old", Price: 10, Category: models.CategoryCards})
	require.NoError(t, err)

	newName := "New"
	newPrice := 12.5
	updated, err := db.UpdateProduct(p.ID, ProductPatch{Name: &newName, Price: &newPrice})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, 12.5, updated.Price)

	missing, err := db.UpdateProduct("nope", ProductPatch{Name: &newName})
	require.NoError(t, err)
	assert.Nil(t, missing, "unknown id yields nil, not an error")

	removed, err := db.DeleteProduct(p.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Nil(t, db.ProductByID(p.ID))
}

func TestStockFIFO(t *testing.T) {
	db := testDB(t)

	p, err := db.AddProduct(models.Product{Name: "Cards", Price: 5, Category: models.CategoryCards})
	require.NoError(t, err)

	_, err = db.AddStock(p.ID, []string{"a", "b", "c"})
	require.NoError(t, err)

	item, ok, err := db.PopStock(p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", item)

	item, ok, err = db.PopStock(p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", item)
}

func TestPopStockExhaustion(t *testing.T) {
	db := testDB(t)

	p, err := db.AddProduct(models.Product{Name: "Cards", Price: 5, Category: models.CategoryCards})
	require.NoError(t, err)
	_, err = db.AddStock(p.ID, []string{"only"})
	require.NoError(t, err)

	_, ok, err := db.PopStock(p.ID)
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		_, ok, err := db.PopStock(p.ID)
		require.NoError(t, err)
		assert.False(t, ok, "popping empty stock reports no stock, never fails")
	}
}

func TestPopStockUnknownProduct(t *testing.T) {
	db := testDB(t)

	_, ok, err := db.PopStock("ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	prod, err := db.AddStock("ghost", []string{"x"})
	require.NoError(t, err)
	assert.Nil(t, prod)
}

func TestPopStockConcurrentNoDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axion_core.json")
	seed := New(Options{Path: path, LockRetries: 2000, LockBackoff: time.Millisecond})

	p, err := seed.AddProduct(models.Product{Name: "Cards", Price: 5, Category: models.CategoryCards})
	require.NoError(t, err)
	_, err = seed.AddStock(p.ID, []string{"i1", "i2", "i3", "i4"})
	require.NoError(t, err)

	const callers = 8
	items := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := New(Options{Path: path, LockRetries: 2000, LockBackoff: time.Millisecond})
			item, ok, err := h.PopStock(p.ID)
			assert.NoError(t, err)
			if ok {
				items <- item
			}
		}()
	}
	wg.Wait()
	close(items)

	seen := make(map[string]bool)
	for item := range items {
		assert.False(t, seen[item], "item %q delivered twice", item)
		seen[item] = true
	}
	assert.Len(t, seen, 4, "exactly the stocked items are delivered, excess pops get nothing")
}
