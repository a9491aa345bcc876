package retrieval

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/benefitlab/benefit-engine/internal/classify"
	"github.com/benefitlab/benefit-engine/internal/offer"
	"github.com/benefitlab/benefit-engine/internal/profile"
)

func testOffer(brand, category string, bt offer.BenefitType, rate float64) *offer.Offer {
	return &offer.Offer{
		ID:           uuid.New(),
		Brand:        brand,
		Category:     category,
		Title:        brand + " 혜택",
		BenefitType:  bt,
		DiscountRate: rate,
		Active:       true,
	}
}

func TestSimilarityScores_InnerProduct(t *testing.T) {
	cands := []Candidate{
		{Distance: -850}, // closest
		{Distance: -500},
		{Distance: -100}, // farthest
	}

	sims := similarityScores(cands, offer.MetricInnerProduct)

	assert.Equal(t, 1.0, sims[0])
	assert.Equal(t, 0.0, sims[2])
	assert.Greater(t, sims[0], sims[1])
	assert.Greater(t, sims[1], sims[2])
}

func TestSimilarityScores_InnerProduct_AllEqual(t *testing.T) {
	cands := []Candidate{{Distance: -42}, {Distance: -42}}

	sims := similarityScores(cands, offer.MetricInnerProduct)
	assert.Equal(t, []float64{0.5, 0.5}, sims)
}

func TestSimilarityScores_BoundedMetrics(t *testing.T) {
	cands := []Candidate{{Distance: 0}, {Distance: 1}, {Distance: 2}}

	cos := similarityScores(cands, offer.MetricCosine)
	assert.Equal(t, 1.0, cos[0])
	assert.Equal(t, 0.5, cos[1])
	assert.Equal(t, 0.0, cos[2])

	unknown := similarityScores(cands, offer.MetricUnknown)
	assert.Equal(t, 1.0, unknown[0])
	assert.Equal(t, 0.0, unknown[1])
}

func TestSimilarityScores_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, metric := range []offer.Metric{offer.MetricInnerProduct, offer.MetricCosine, offer.MetricL2, offer.MetricUnknown} {
		cands := make([]Candidate, 50)
		for i := range cands {
			cands[i].Distance = rng.Float64()*2000 - 1000
		}

		for _, sim := range similarityScores(cands, metric) {
			assert.GreaterOrEqual(t, sim, 0.0)
			assert.LessOrEqual(t, sim, 1.0)
		}
	}
}

func TestPreferenceScore(t *testing.T) {
	now := time.Now()
	prof := profile.Build([]profile.Transaction{
		{Brand: "스타벅스", Category: "카페", Amount: 5000, Date: now},
		{Brand: "스타벅스", Category: "카페", Amount: 5000, Date: now},
		{Brand: "GS25", Category: "편의점", Amount: 3000, Date: now},
		{Brand: "올리브영", Category: "뷰티", Amount: 20000, Date: now},
	}, now)

	// 0.7*(2/4) + 0.3*(2/4) = 0.5
	got := preferenceScore(testOffer("스타벅스", "카페", offer.BenefitDiscount, 10), prof)
	assert.InDelta(t, 0.5, got, 1e-9)

	// Category-only affinity: 0.3*(1/4)
	got = preferenceScore(testOffer("이마트24", "편의점", offer.BenefitDiscount, 10), prof)
	assert.InDelta(t, 0.075, got, 1e-9)

	// Empty profile scores zero.
	assert.Zero(t, preferenceScore(testOffer("스타벅스", "카페", offer.BenefitDiscount, 10), profile.Build(nil, now)))
}

func TestRecencyScore(t *testing.T) {
	now := time.Now()
	prof := profile.Build([]profile.Transaction{
		{Brand: "스타벅스", Category: "카페", Amount: 5000, Date: now.AddDate(0, 0, -20)},
		{Brand: "이디야", Category: "카페", Amount: 4000, Date: now.AddDate(0, 0, -3)},
	}, now)

	// Direct brand match uses the transaction's recency weight.
	got := recencyScore(testOffer("스타벅스", "카페", offer.BenefitDiscount, 10), prof, nil)
	assert.Equal(t, 0.8, got)

	// Category match halves the best weight. 이디야 at 3 days gives 1.0.
	got = recencyScore(testOffer("투썸플레이스", "카페", offer.BenefitDiscount, 10), prof, nil)
	assert.Equal(t, 0.5, got)

	// No overlap at all.
	got = recencyScore(testOffer("쿠팡", "온라인쇼핑", offer.BenefitDiscount, 10), prof, nil)
	assert.Zero(t, got)

	// Explicit spending in the query pins recency to the maximum.
	spending := map[string]classify.Spending{"쿠팡": {Amount: 50000}}
	got = recencyScore(testOffer("쿠팡", "온라인쇼핑", offer.BenefitDiscount, 10), prof, spending)
	assert.Equal(t, 1.0, got)
}

func TestSavingsScore(t *testing.T) {
	now := time.Now()
	prof := profile.Build([]profile.Transaction{
		{Brand: "백화점", Category: "쇼핑", Amount: 100000, Date: now},
	}, now)

	// Discount: 100000*20/100 = 20000, normalized by max(100000, 50000).
	got := savingsScore(testOffer("백화점", "쇼핑", offer.BenefitDiscount, 20), prof)
	assert.InDelta(t, 0.2, got, 1e-9)

	// Points are worth half a discount.
	got = savingsScore(testOffer("백화점", "쇼핑", offer.BenefitPoints, 20), prof)
	assert.InDelta(t, 0.1, got, 1e-9)

	// Gift and other use flat value fractions.
	got = savingsScore(testOffer("백화점", "쇼핑", offer.BenefitGift, 0), prof)
	assert.InDelta(t, 0.2, got, 1e-9)
	got = savingsScore(testOffer("백화점", "쇼핑", offer.BenefitCoupon, 0), prof)
	assert.InDelta(t, 0.1, got, 1e-9)

	// No history at all scores zero.
	assert.Zero(t, savingsScore(testOffer("백화점", "쇼핑", offer.BenefitDiscount, 20), profile.Build(nil, now)))
}

func TestSavingsScore_FloorNormalization(t *testing.T) {
	now := time.Now()
	prof := profile.Build([]profile.Transaction{
		{Brand: "카페", Category: "카페", Amount: 5000, Date: now},
	}, now)

	// 5000*50/100 = 2500, normalized by the 50000 floor rather than
	// the tiny brand average.
	got := savingsScore(testOffer("카페", "카페", offer.BenefitDiscount, 50), prof)
	assert.InDelta(t, 0.05, got, 1e-9)
}

func TestScoreAll_CompositeInRange(t *testing.T) {
	now := time.Now()
	prof := profile.Build([]profile.Transaction{
		{Brand: "스타벅스", Category: "카페", Amount: 5000, Date: now},
	}, now)

	cands := []Candidate{
		{Offer: testOffer("스타벅스", "카페", offer.BenefitDiscount, 30), Distance: -900},
		{Offer: testOffer("GS25", "편의점", offer.BenefitPoints, 10), Distance: -300},
	}

	scored := NewScorer(ScoreWeights{}).ScoreAll(cands, offer.MetricInnerProduct, prof, nil)

	for _, sc := range scored {
		assert.GreaterOrEqual(t, sc.Score, 0.0)
		assert.LessOrEqual(t, sc.Score, 1.0)
	}

	// The preferred brand with the closer vector must win.
	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestScoreAll_EmptyProfile(t *testing.T) {
	prof := profile.Build(nil, time.Now())

	cands := []Candidate{
		{Offer: testOffer("스타벅스", "카페", offer.BenefitDiscount, 30), Distance: -900},
		{Offer: testOffer("GS25", "편의점", offer.BenefitPoints, 10), Distance: -300},
	}

	scored := NewScorer(ScoreWeights{}).ScoreAll(cands, offer.MetricInnerProduct, prof, nil)

	for _, sc := range scored {
		assert.Zero(t, sc.Preference)
		assert.Zero(t, sc.Recency)
		assert.GreaterOrEqual(t, sc.Score, 0.0)
		assert.LessOrEqual(t, sc.Score, 1.0)
	}
}
