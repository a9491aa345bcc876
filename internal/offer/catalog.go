package offer

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Catalog caches the set of brands and categories present in the store.
// Existence checks degrade gracefully when the catalog has not loaded:
// an empty catalog treats every name as known rather than rejecting
// queries it cannot verify.
type Catalog struct {
	mu         sync.RWMutex
	brands     map[string]struct{}
	categories map[string]struct{}
	loaded     bool
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		brands:     make(map[string]struct{}),
		categories: make(map[string]struct{}),
	}
}

// Load refreshes the catalog from the store.
func (c *Catalog) Load(ctx context.Context, store Store) error {
	offers, err := store.All(ctx)
	if err != nil {
		return err
	}

	brands := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, o := range offers {
		if b := strings.TrimSpace(o.Brand); b != "" {
			brands[strings.ToLower(b)] = struct{}{}
		}
		if cat := strings.TrimSpace(o.Category); cat != "" {
			categories[strings.ToLower(cat)] = struct{}{}
		}
	}

	c.mu.Lock()
	c.brands = brands
	c.categories = categories
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// HasBrand reports whether the brand exists in the catalog.
// Returns true when the catalog has not loaded.
func (c *Catalog) HasBrand(brand string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded || len(c.brands) == 0 {
		return true
	}
	_, ok := c.brands[strings.ToLower(strings.TrimSpace(brand))]
	return ok
}

// HasCategory reports whether the category exists in the catalog.
// Returns true when the catalog has not loaded.
func (c *Catalog) HasCategory(category string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded || len(c.categories) == 0 {
		return true
	}
	_, ok := c.categories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// Brands returns the sorted list of known brands.
func (c *Catalog) Brands() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.brands)
}

// Categories returns the sorted list of known categories.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.categories)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
