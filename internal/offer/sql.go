package offer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DB abstracts database operations for testing.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SQLStore is an offer catalog backed by SQLite or Postgres.
// Embeddings are stored as JSON and vector search is brute force, which
// is adequate for catalogs in the thousands of offers.
type SQLStore struct {
	db       DB
	closer   interface{ Close() error }
	postgres bool
}

// NewSQLStore creates a store over an open database handle. Queries are
// written with ? placeholders and rebound to $N when driver is "postgres".
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, closer: db, postgres: driver == "postgres"}
}

// Schema is the DDL for the offers table, valid for both SQLite and Postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS offers (
    id            TEXT PRIMARY KEY,
    brand         TEXT NOT NULL,
    category      TEXT NOT NULL,
    title         TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    benefit_type  TEXT NOT NULL,
    discount_rate REAL NOT NULL DEFAULT 0,
    conditions    TEXT NOT NULL DEFAULT '',
    valid_from    TIMESTAMP,
    valid_to      TIMESTAMP,
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    embedding     TEXT NOT NULL DEFAULT '[]',
    created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_offers_brand ON offers (brand);
CREATE INDEX IF NOT EXISTS idx_offers_category ON offers (category);
`

// EnsureSchema creates the offers table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create offers schema: %w", err)
	}
	return nil
}

// Insert adds an offer.
func (s *SQLStore) Insert(ctx context.Context, o *Offer) error {
	emb, err := json.Marshal(o.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO offers (id, brand, category, title, description, benefit_type,
			discount_rate, conditions, valid_from, valid_to, active, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		o.ID.String(), o.Brand, o.Category, o.Title, o.Description, string(o.BenefitType),
		o.DiscountRate, o.Conditions, o.ValidFrom, o.ValidTo, o.Active, string(emb), createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// Get returns the offer with the given ID.
func (s *SQLStore) Get(ctx context.Context, id uuid.UUID) (*Offer, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectOffers+` WHERE id = ?`), id.String())
	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// GetByBrand returns all offers whose brand matches, case-insensitively,
// ordered by ID. Matches the memory store's lookup semantics.
func (s *SQLStore) GetByBrand(ctx context.Context, brand string) ([]*Offer, error) {
	return s.query(ctx, selectOffers+` WHERE LOWER(brand) = LOWER(?) ORDER BY id`, brand)
}

// GetByCategory returns all offers whose category matches,
// case-insensitively, ordered by ID.
func (s *SQLStore) GetByCategory(ctx context.Context, category string) ([]*Offer, error) {
	return s.query(ctx, selectOffers+` WHERE LOWER(category) = LOWER(?) ORDER BY id`, category)
}

// All returns every offer in the catalog, ordered by ID.
func (s *SQLStore) All(ctx context.Context) ([]*Offer, error) {
	return s.query(ctx, selectOffers+` ORDER BY id`)
}

// NearestNeighbors scans all embeddings and returns the k closest offers
// under inner-product distance.
func (s *SQLStore) NearestNeighbors(ctx context.Context, vec []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}

	offers, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(offers))
	for _, o := range offers {
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
func (s *SQLStore) Metric() Metric {
	return MetricInnerProduct
}

// Count returns the number of offers.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return n, nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

const selectOffers = `
	SELECT id, brand, category, title, description, benefit_type,
		discount_rate, conditions, valid_from, valid_to, active, embedding, created_at
	FROM offers`

// rebind rewrites ? placeholders to $N for Postgres.
func (s *SQLStore) rebind(q string) string {
	if !s.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) query(ctx context.Context, q string, args ...interface{}) ([]*Offer, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()

	var out []*Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOffer(row scanner) (*Offer, error) {
	var (
		o           Offer
		idStr       string
		benefitType string
		embJSON     string
	)

	err := row.Scan(&idStr, &o.Brand, &o.Category, &o.Title, &o.Description, &benefitType,
		&o.DiscountRate, &o.Conditions, &o.ValidFrom, &o.ValidTo, &o.Active, &embJSON, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	o.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse offer id: %w", err)
	}

	o.BenefitType = BenefitType(benefitType)

	if err := json.Unmarshal([]byte(embJSON), &o.Embedding); err != nil {
		return nil, fmt.Errorf("unmarshal embedding: %w", err)
	}

	return &o, nil
}
