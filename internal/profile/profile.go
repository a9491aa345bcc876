// Package profile builds user spending profiles from transaction history.
// Profiles feed the personalization scorer with brand and category
// affinities, spend averages, and recency signals.
package profile

import (
	"sort"
	"time"
)

// Transaction is a single purchase in a user's spending history.
type Transaction struct {
	Brand    string    `json:"brand"`
	Category string    `json:"category"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
}

// RecentTransaction is a transaction inside the recency window, annotated
// with its recency weight.
type RecentTransaction struct {
	Transaction
	Weight float64
}

// UserProfile aggregates a user's spending history.
type UserProfile struct {
	BrandCounts    map[string]int
	CategoryCounts map[string]int
	BrandSpend     map[string]float64
	CategorySpend  map[string]float64

	TotalTransactions int
	TotalSpend        float64

	// AvgSpendPerBrand is BrandSpend divided by BrandCounts.
	AvgSpendPerBrand map[string]float64

	// Recent holds transactions within the last 90 days, weighted by age.
	Recent []RecentTransaction

	CreatedAt time.Time
}

// recentWindow bounds the transactions kept for recency scoring.
const recentWindow = 90 * 24 * time.Hour

// Build aggregates a spending history into a profile. An empty history
// yields a zero-valued profile, never nil.
func Build(history []Transaction, now time.Time) *UserProfile {
	p := &UserProfile{
		BrandCounts:      make(map[string]int),
		CategoryCounts:   make(map[string]int),
		BrandSpend:       make(map[string]float64),
		CategorySpend:    make(map[string]float64),
		AvgSpendPerBrand: make(map[string]float64),
		CreatedAt:        now,
	}

	for _, tx := range history {
		if tx.Brand != "" {
			p.BrandCounts[tx.Brand]++
			p.BrandSpend[tx.Brand] += tx.Amount
		}
		if tx.Category != "" {
			p.CategoryCounts[tx.Category]++
			p.CategorySpend[tx.Category] += tx.Amount
		}
		p.TotalTransactions++
		p.TotalSpend += tx.Amount

		if !tx.Date.IsZero() && now.Sub(tx.Date) <= recentWindow {
			p.Recent = append(p.Recent, RecentTransaction{
				Transaction: tx,
				Weight:      RecencyWeight(tx.Date, now),
			})
		}
	}

	for brand, total := range p.BrandSpend {
		p.AvgSpendPerBrand[brand] = total / float64(p.BrandCounts[brand])
	}

	return p
}

// RecencyWeight maps a transaction's age to a weight favoring recent spend.
func RecencyWeight(date, now time.Time) float64 {
	days := int(now.Sub(date).Hours() / 24)
	switch {
	case days <= 7:
		return 1.0
	case days <= 30:
		return 0.8
	case days <= 90:
		return 0.5
	default:
		return 0.2
	}
}

// TopBrands returns up to n brands ordered by transaction count descending.
// Ties break alphabetically for deterministic output.
func (p *UserProfile) TopBrands(n int) []string {
	return topKeys(p.BrandCounts, n)
}

// TopCategories returns up to n categories ordered by count descending.
func (p *UserProfile) TopCategories(n int) []string {
	return topKeys(p.CategoryCounts, n)
}

func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
