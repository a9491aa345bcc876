package offer

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewSQLStore(db, "sqlite")
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestSQLStore_InsertGet(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	validTo := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	o := newOffer("스타벅스", "카페", "아메리카노 20% 할인")
	o.DiscountRate = 20
	o.Conditions = "사이렌오더 결제 시"
	o.ValidTo = &validTo
	o.Embedding = []float32{0.5, -0.5}

	require.NoError(t, s.Insert(ctx, o))

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Brand, got.Brand)
	assert.Equal(t, o.DiscountRate, got.DiscountRate)
	assert.Equal(t, BenefitDiscount, got.BenefitType)
	assert.Equal(t, []float32{0.5, -0.5}, got.Embedding)
	require.NotNil(t, got.ValidTo)
	assert.True(t, got.ValidTo.Equal(validTo))
}

func TestSQLStore_Lookups(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newOffer("스타벅스", "카페", "할인 A")))
	require.NoError(t, s.Insert(ctx, newOffer("GS25", "편의점", "1+1")))

	byBrand, err := s.GetByBrand(ctx, "GS25")
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "1+1", byBrand[0].Title)

	byCat, err := s.GetByCategory(ctx, "카페")
	require.NoError(t, err)
	assert.Len(t, byCat, 1)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLStore_LookupsIgnoreCase(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newOffer("GS25", "편의점", "1+1")))
	require.NoError(t, s.Insert(ctx, newOffer("Nike", "Fashion", "멤버 할인")))

	byBrand, err := s.GetByBrand(ctx, "gs25")
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "GS25", byBrand[0].Brand)

	byBrand, err = s.GetByBrand(ctx, "NIKE")
	require.NoError(t, err)
	assert.Len(t, byBrand, 1)

	byCat, err := s.GetByCategory(ctx, "fashion")
	require.NoError(t, err)
	assert.Len(t, byCat, 1)
}

func TestSQLStore_NearestNeighbors(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	a := newOffer("스타벅스", "카페", "가까운 오퍼")
	a.Embedding = []float32{1, 0}
	b := newOffer("GS25", "편의점", "먼 오퍼")
	b.Embedding = []float32{0, 1}

	require.NoError(t, s.Insert(ctx, a))
	require.NoError(t, s.Insert(ctx, b))

	got, err := s.NearestNeighbors(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].Offer.ID)
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := &SQLStore{postgres: true}
	assert.Equal(t, "SELECT * FROM offers WHERE brand = $1 AND category = $2",
		pg.rebind("SELECT * FROM offers WHERE brand = ? AND category = ?"))

	lite := &SQLStore{postgres: false}
	assert.Equal(t, "WHERE brand = ?", lite.rebind("WHERE brand = ?"))
}
