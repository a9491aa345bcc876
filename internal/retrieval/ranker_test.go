package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benefitlab/benefit-engine/internal/offer"
)

func scoredOffer(brand string, score float64) Scored {
	return Scored{
		Offer: testOffer(brand, "카페", offer.BenefitDiscount, 10),
		Score: score,
	}
}

func TestRank_OrdersByScore(t *testing.T) {
	scored := []Scored{
		scoredOffer("A", 0.3),
		scoredOffer("B", 0.9),
		scoredOffer("C", 0.6),
	}

	ranked := Rank(scored, 3)

	assert.Equal(t, "B", ranked[0].Offer.Brand)
	assert.Equal(t, "C", ranked[1].Offer.Brand)
	assert.Equal(t, "A", ranked[2].Offer.Brand)
}

func TestRank_DiversityCap(t *testing.T) {
	// topK=6 allows at most 2 offers per brand in the first pass.
	scored := []Scored{
		scoredOffer("스타벅스", 0.95),
		scoredOffer("스타벅스", 0.90),
		scoredOffer("스타벅스", 0.85),
		scoredOffer("GS25", 0.80),
		scoredOffer("올리브영", 0.75),
		scoredOffer("이마트", 0.70),
		scoredOffer("쿠팡", 0.65),
	}

	ranked := Rank(scored, 6)

	counts := make(map[string]int)
	for _, sc := range ranked {
		counts[sc.Offer.Brand]++
	}
	assert.Equal(t, 2, counts["스타벅스"])
	assert.Len(t, ranked, 6)
}

func TestRank_BackfillWhenCapLeavesSlots(t *testing.T) {
	// Only one brand exists, so after the cap the rest backfill by score.
	scored := []Scored{
		scoredOffer("스타벅스", 0.9),
		scoredOffer("스타벅스", 0.8),
		scoredOffer("스타벅스", 0.7),
	}

	ranked := Rank(scored, 3)

	assert.Len(t, ranked, 3)
	assert.Equal(t, 0.9, ranked[0].Score)
	assert.Equal(t, 0.8, ranked[1].Score)
	assert.Equal(t, 0.7, ranked[2].Score)
}

func TestRank_SmallTopK(t *testing.T) {
	scored := []Scored{
		scoredOffer("A", 0.9),
		scoredOffer("A", 0.8),
		scoredOffer("B", 0.7),
	}

	// topK=2 means at most one offer per brand first, so B displaces
	// the second A.
	ranked := Rank(scored, 2)
	assert.Equal(t, "A", ranked[0].Offer.Brand)
	assert.Equal(t, "B", ranked[1].Offer.Brand)
}

func TestRank_Deterministic(t *testing.T) {
	scored := []Scored{
		scoredOffer("A", 0.5),
		scoredOffer("B", 0.5),
		scoredOffer("C", 0.5),
	}

	first := Rank(scored, 3)
	second := Rank(scored, 3)

	for i := range first {
		assert.Equal(t, first[i].Offer.ID, second[i].Offer.ID)
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Nil(t, Rank(nil, 5))
	assert.Nil(t, Rank([]Scored{scoredOffer("A", 0.5)}, 0))
}
