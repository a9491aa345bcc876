package retrieval

import (
	"fmt"
	"strings"
	"time"

	"github.com/benefitlab/benefit-engine/internal/offer"
)

// Formatter renders pipeline results as chat responses.
type Formatter struct {
	// ShowScores appends the personalization score to each entry.
	ShowScores bool
}

// Format renders a pipeline result into a user-facing message.
func (f *Formatter) Format(res *Result) string {
	switch res.Strategy {
	case StrategyLiveSearch:
		return f.formatLive(res)
	case StrategyNone:
		return f.formatEmpty(res)
	default:
		return f.formatOffers(res)
	}
}

func (f *Formatter) formatOffers(res *Result) string {
	var b strings.Builder

	if header := profileHeader(res); header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}

	b.WriteString("맞춤 혜택 추천 결과:\n\n")

	for i, sc := range res.Offers {
		o := sc.Offer
		fmt.Fprintf(&b, "[%d] %s (%s)\n", i+1, o.Brand, o.Category)
		fmt.Fprintf(&b, "%s\n", o.Title)
		b.WriteString(benefitLine(o))

		conditions := o.Conditions
		if conditions == "" {
			conditions = "조건 없음"
		}
		fmt.Fprintf(&b, "조건: %s\n", conditions)

		if period := periodLine(o); period != "" {
			b.WriteString(period)
		}

		if f.ShowScores {
			fmt.Fprintf(&b, "개인화 점수: %.3f\n", sc.Score)
		}
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

func (f *Formatter) formatLive(res *Result) string {
	var b strings.Builder

	if len(res.MissingBrands) > 0 {
		b.WriteString(missingBrandsLine(res.MissingBrands))
		b.WriteString("\n최신 정보를 실시간으로 검색했어요.\n\n")
	} else {
		b.WriteString("등록된 혜택 중에는 맞는 결과가 없어 실시간으로 검색했어요.\n\n")
	}

	b.WriteString(res.LiveContent)
	b.WriteString("\n\n(실시간 웹 검색 결과이므로 정확한 조건은 해당 브랜드에서 확인해주세요.)")

	return b.String()
}

func (f *Formatter) formatEmpty(res *Result) string {
	if len(res.MissingBrands) > 0 {
		return missingBrandsLine(res.MissingBrands)
	}
	return "해당 조건에 맞는 혜택 정보가 없습니다."
}

// profileHeader summarizes the spending history behind the recommendation.
func profileHeader(res *Result) string {
	prof := res.Profile
	if prof == nil || prof.TotalTransactions == 0 {
		return ""
	}

	header := fmt.Sprintf("소비 이력 %d건, 총 %s원 기준", prof.TotalTransactions, formatAmount(prof.TotalSpend))
	if brands := prof.TopBrands(3); len(brands) > 0 {
		header += fmt.Sprintf(" (주요 브랜드: %s)", strings.Join(brands, ", "))
	}
	return header
}

func benefitLine(o *offer.Offer) string {
	switch {
	case o.BenefitType == offer.BenefitDiscount && o.DiscountRate > 0:
		return fmt.Sprintf("할인: %g%% 할인\n", o.DiscountRate)
	case o.BenefitType == offer.BenefitPoints && o.DiscountRate > 0:
		return fmt.Sprintf("적립: %g배 적립\n", o.DiscountRate)
	case o.BenefitType == offer.BenefitCoupon:
		return "혜택: 쿠폰 제공\n"
	case o.BenefitType == offer.BenefitGift:
		return "혜택: 증정\n"
	default:
		return fmt.Sprintf("혜택: %s\n", o.BenefitType)
	}
}

func periodLine(o *offer.Offer) string {
	if o.ValidFrom == nil && o.ValidTo == nil {
		return ""
	}

	format := func(t *time.Time) string {
		if t == nil {
			return "상시"
		}
		return t.Format("2006-01-02")
	}
	return fmt.Sprintf("기간: %s ~ %s\n", format(o.ValidFrom), format(o.ValidTo))
}

func missingBrandsLine(brands []string) string {
	if len(brands) == 1 {
		return fmt.Sprintf("'%s' 브랜드는 현재 혜택 데이터베이스에 등록되어 있지 않습니다.", brands[0])
	}
	return fmt.Sprintf("'%s' 브랜드들은 현재 혜택 데이터베이스에 등록되어 있지 않습니다.", strings.Join(brands, "', '"))
}

// formatAmount renders an amount with thousands separators.
func formatAmount(v float64) string {
	n := int64(v)
	if n < 0 {
		return "-" + formatAmount(-v)
	}

	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
