package offer

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory offer catalog with a brute-force vector index.
// Vector search uses inner-product distance, reported as the negated dot
// product so that closer matches sort first.
type MemoryStore struct {
	mu     sync.RWMutex
	offers map[uuid.UUID]*Offer
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		offers: make(map[uuid.UUID]*Offer),
	}
}

// Insert adds an offer.
func (s *MemoryStore) Insert(ctx context.Context, o *Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offers[o.ID]; ok {
		return ErrConflict
	}
	s.offers[o.ID] = o
	return nil
}

// Get returns the offer with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

// GetByBrand returns all offers whose brand matches, case-insensitively,
// ordered by ID.
func (s *MemoryStore) GetByBrand(ctx context.Context, brand string) ([]*Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Offer
	for _, o := range s.offers {
		if strings.EqualFold(o.Brand, brand) {
			out = append(out, o)
		}
	}
	sortOffers(out)
	return out, nil
}

// GetByCategory returns all offers whose category matches,
// case-insensitively, ordered by ID.
func (s *MemoryStore) GetByCategory(ctx context.Context, category string) ([]*Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Offer
	for _, o := range s.offers {
		if strings.EqualFold(o.Category, category) {
			out = append(out, o)
		}
	}
	sortOffers(out)
	return out, nil
}

// All returns every offer in the catalog, ordered by ID. Map iteration
// order is random, so callers that truncate rely on the sort.
func (s *MemoryStore) All(ctx context.Context) ([]*Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Offer, 0, len(s.offers))
	for _, o := range s.offers {
		out = append(out, o)
	}
	sortOffers(out)
	return out, nil
}

// NearestNeighbors returns up to k offers closest to the query vector.
func (s *MemoryStore) NearestNeighbors(ctx context.Context, vec []float32, k int) ([]Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		return nil, nil
	}

	neighbors := make([]Neighbor, 0, len(s.offers))
	for _, o := range s.offers {
		if len(o.Embedding) != len(vec) || len(vec) == 0 {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Offer:    o,
			Distance: -dot(vec, o.Embedding),
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Offer.ID.String() < neighbors[j].Offer.ID.String()
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// Metric reports inner-product distance semantics.
func (s *MemoryStore) Metric() Metric {
	return MetricInnerProduct
}

// Count returns the number of offers.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.offers), nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func sortOffers(offers []*Offer) {
	sort.Slice(offers, func(i, j int) bool {
		return offers[i].ID.String() < offers[j].ID.String()
	})
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
