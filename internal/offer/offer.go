// Package offer defines the benefit offer catalog and its storage backends.
package offer

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BenefitType classifies how an offer rewards the user.
type BenefitType string

const (
	BenefitDiscount BenefitType = "discount"
	BenefitPoints   BenefitType = "points"
	BenefitCoupon   BenefitType = "coupon"
	BenefitGift     BenefitType = "gift"
	BenefitOther    BenefitType = "other"
)

// ParseBenefitType maps a raw string to a known benefit type.
// Unknown values map to BenefitOther.
func ParseBenefitType(s string) BenefitType {
	switch BenefitType(strings.ToLower(strings.TrimSpace(s))) {
	case BenefitDiscount:
		return BenefitDiscount
	case BenefitPoints:
		return BenefitPoints
	case BenefitCoupon:
		return BenefitCoupon
	case BenefitGift:
		return BenefitGift
	default:
		return BenefitOther
	}
}

// Offer is a single benefit in the catalog.
type Offer struct {
	ID           uuid.UUID   `json:"id"`
	Brand        string      `json:"brand"`
	Category     string      `json:"category"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	BenefitType  BenefitType `json:"benefit_type"`
	DiscountRate float64     `json:"discount_rate,omitempty"`
	Conditions   string      `json:"conditions,omitempty"`
	ValidFrom    *time.Time  `json:"valid_from,omitempty"`
	ValidTo      *time.Time  `json:"valid_to,omitempty"`
	Active       bool        `json:"active"`
	Embedding    []float32   `json:"-"`
	CreatedAt    time.Time   `json:"created_at,omitempty"`
}

// Eligible reports whether the offer may be recommended at the given time.
// An offer qualifies only when it is active, not expired, and carries the
// fields a recommendation needs to be actionable.
func (o *Offer) Eligible(now time.Time) bool {
	if !o.Active {
		return false
	}
	if o.ValidTo != nil && o.ValidTo.Before(now) {
		return false
	}
	if strings.TrimSpace(o.Brand) == "" ||
		strings.TrimSpace(o.Category) == "" ||
		strings.TrimSpace(o.Title) == "" ||
		o.BenefitType == "" {
		return false
	}
	return true
}

// SearchText returns the text used to embed the offer for vector search.
func (o *Offer) SearchText() string {
	parts := []string{o.Brand, o.Category, o.Title}
	if o.Description != "" {
		parts = append(parts, o.Description)
	}
	if o.Conditions != "" {
		parts = append(parts, o.Conditions)
	}
	return strings.Join(parts, " ")
}
