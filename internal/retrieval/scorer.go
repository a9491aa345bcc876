// Package retrieval implements the offer recommendation pipeline: a
// fallback chain of search strategies followed by personalization
// scoring and diversity-aware ranking.
package retrieval

import (
	"math"

	"github.com/benefitlab/benefit-engine/internal/classify"
	"github.com/benefitlab/benefit-engine/internal/offer"
	"github.com/benefitlab/benefit-engine/internal/profile"
)

// Candidate is an offer with its raw search distance, before scoring.
type Candidate struct {
	Offer    *offer.Offer
	Distance float64
}

// Scored is a candidate with its personalization score breakdown.
type Scored struct {
	Offer      *offer.Offer
	Similarity float64
	Recency    float64
	Preference float64
	Savings    float64
	Score      float64
}

// ScoreWeights are the component weights of the composite score.
type ScoreWeights struct {
	Similarity float64
	Recency    float64
	Preference float64
	Savings    float64
}

// DefaultWeights favor query relevance while still letting spending
// history reorder close results.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{
		Similarity: 0.40,
		Recency:    0.25,
		Preference: 0.20,
		Savings:    0.15,
	}
}

// savingsFloor keeps savings normalization stable for low spenders.
const savingsFloor = 50000

// Scorer computes composite personalization scores.
type Scorer struct {
	weights ScoreWeights
}

// NewScorer creates a scorer. Zero weights fall back to the defaults.
func NewScorer(w ScoreWeights) *Scorer {
	if w == (ScoreWeights{}) {
		w = DefaultWeights()
	}
	return &Scorer{weights: w}
}

// ScoreAll scores a batch of candidates against a user profile.
// Similarity normalization is batch-relative for inner-product metrics,
// so the whole batch must come from one search strategy.
func (s *Scorer) ScoreAll(cands []Candidate, metric offer.Metric, prof *profile.UserProfile, spending map[string]classify.Spending) []Scored {
	sims := similarityScores(cands, metric)

	out := make([]Scored, 0, len(cands))
	for i, c := range cands {
		sc := Scored{
			Offer:      c.Offer,
			Similarity: sims[i],
			Recency:    recencyScore(c.Offer, prof, spending),
			Preference: preferenceScore(c.Offer, prof),
			Savings:    savingsScore(c.Offer, prof),
		}
		sc.Score = clamp01(s.weights.Similarity*sc.Similarity +
			s.weights.Recency*sc.Recency +
			s.weights.Preference*sc.Preference +
			s.weights.Savings*sc.Savings)
		out = append(out, sc)
	}
	return out
}

// similarityScores converts raw distances to [0,1] similarities.
// Inner-product distances are negative and unbounded, so they are
// min-max normalized within the batch. Metric-bounded distances map
// directly.
func similarityScores(cands []Candidate, metric offer.Metric) []float64 {
	sims := make([]float64, len(cands))
	if len(cands) == 0 {
		return sims
	}

	if metric == offer.MetricInnerProduct {
		minD, maxD := cands[0].Distance, cands[0].Distance
		for _, c := range cands[1:] {
			minD = math.Min(minD, c.Distance)
			maxD = math.Max(maxD, c.Distance)
		}

		for i, c := range cands {
			if maxD == minD {
				sims[i] = 0.5
				continue
			}
			sims[i] = clamp01(1 - (c.Distance-minD)/(maxD-minD))
		}
		return sims
	}

	for i, c := range cands {
		switch metric {
		case offer.MetricCosine:
			sims[i] = clamp01(1 - c.Distance/2)
		case offer.MetricL2:
			sims[i] = clamp01(1 - c.Distance/math.Sqrt2)
		default:
			sims[i] = clamp01(1 - c.Distance)
		}
	}
	return sims
}

// recencyScore reflects how recently the user spent at the offer's brand
// or category. A brand named with an explicit amount in the query scores
// highest regardless of history.
func recencyScore(o *offer.Offer, prof *profile.UserProfile, spending map[string]classify.Spending) float64 {
	if _, ok := spending[o.Brand]; ok {
		return 1.0
	}

	var best float64
	for _, tx := range prof.Recent {
		switch {
		case tx.Brand == o.Brand:
			best = math.Max(best, tx.Weight)
		case tx.Category == o.Category:
			best = math.Max(best, tx.Weight*0.5)
		}
	}
	return best
}

// preferenceScore reflects the share of the user's transactions at the
// offer's brand and category.
func preferenceScore(o *offer.Offer, prof *profile.UserProfile) float64 {
	if prof.TotalTransactions == 0 {
		return 0
	}

	total := float64(prof.TotalTransactions)
	brandShare := float64(prof.BrandCounts[o.Brand]) / total
	categoryShare := float64(prof.CategoryCounts[o.Category]) / total

	return clamp01(0.7*brandShare + 0.3*categoryShare)
}

// savingsScore estimates the offer's monetary value relative to the
// user's average spend at the brand.
func savingsScore(o *offer.Offer, prof *profile.UserProfile) float64 {
	avg := prof.AvgSpendPerBrand[o.Brand]
	if avg == 0 && prof.TotalTransactions > 0 {
		avg = prof.TotalSpend / float64(prof.TotalTransactions)
	}
	if avg == 0 {
		return 0
	}

	var value float64
	switch o.BenefitType {
	case offer.BenefitDiscount:
		value = avg * o.DiscountRate / 100
	case offer.BenefitPoints:
		value = avg * o.DiscountRate / 100 * 0.5
	case offer.BenefitGift:
		value = avg * 0.2
	default:
		value = avg * 0.1
	}

	return clamp01(value / math.Max(avg, savingsFloor))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
