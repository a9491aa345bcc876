package offer

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Sentinel errors for store operations.
var (
	ErrNotFound = errors.New("offer not found")
	ErrConflict = errors.New("offer already exists")
)

// Metric identifies the distance semantics of a store's vector index.
type Metric string

const (
	MetricInnerProduct Metric = "inner_product"
	MetricCosine       Metric = "cosine"
	MetricL2           Metric = "l2"
	MetricUnknown      Metric = "unknown"
)

// Neighbor is a vector search hit with its raw distance.
type Neighbor struct {
	Offer    *Offer
	Distance float64
}

// Store is the offer catalog backend.
type Store interface {
	// Insert adds an offer. Returns ErrConflict if the ID exists.
	Insert(ctx context.Context, o *Offer) error

	// Get returns the offer with the given ID or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Offer, error)

	// GetByBrand returns all offers whose brand matches exactly.
	GetByBrand(ctx context.Context, brand string) ([]*Offer, error)

	// GetByCategory returns all offers whose category matches exactly.
	GetByCategory(ctx context.Context, category string) ([]*Offer, error)

	// All returns every offer in the catalog.
	All(ctx context.Context) ([]*Offer, error)

	// NearestNeighbors returns up to k offers closest to the query vector,
	// ordered by ascending distance under the store's metric.
	NearestNeighbors(ctx context.Context, vec []float32, k int) ([]Neighbor, error)

	// Metric reports the distance semantics of NearestNeighbors results.
	Metric() Metric

	// Count returns the number of offers in the catalog.
	Count(ctx context.Context) (int, error)

	Close() error
}
