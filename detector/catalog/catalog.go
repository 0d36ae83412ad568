package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
)

// Item holds the catalog details for one product label.
type Item struct {
	Price decimal.Decimal `json:"price"`
}

// Catalog maps product labels to unit prices. Unknown labels price at zero.
type Catalog struct {
	mu     sync.RWMutex
	items  map[string]Item
	labels []string
}

// New creates a catalog from an in-memory item map.
func New(items map[string]Item) *Catalog {
	return newCatalog(items)
}

// LoadFile loads a catalog from a products JSON file. The file maps each
// label to its details, e.g. {"Soda": {"price": 1.25}}.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read products file: %w", err)
	}

	items := make(map[string]Item)
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse products file %s: %w", path, err)
	}

	c := newCatalog(items)
	log.Infof("Loaded %d products from %s", len(items), path)
	return c, nil
}

// LoadDB loads a catalog from the products table.
func LoadDB(ctx context.Context, db *sql.DB) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, "SELECT label, price FROM products")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	items := make(map[string]Item)
	for rows.Next() {
		var label string
		var price decimal.Decimal
		if err := rows.Scan(&label, &price); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		items[label] = Item{Price: price}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}

	c := newCatalog(items)
	log.Infof("Loaded %d products from database", len(items))
	return c, nil
}

func newCatalog(items map[string]Item) *Catalog {
	labels := make([]string, 0, len(items))
	for label := range items {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return &Catalog{items: items, labels: labels}
}

// Price returns the unit price for a label, or zero when unknown.
func (c *Catalog) Price(label string) decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[label].Price
}

// Has reports whether the label is in the catalog.
func (c *Catalog) Has(label string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[label]
	return ok
}

// Labels returns all catalog labels in sorted order.
func (c *Catalog) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	labels := make([]string, len(c.labels))
	copy(labels, c.labels)
	return labels
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
