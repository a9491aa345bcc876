package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benefitlab/benefit-engine/internal/offer"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOfferRecords_JSON(t *testing.T) {
	path := writeTemp(t, "offers.json", `[
		{"brand": "스타벅스", "category": "카페", "title": "아메리카노 30% 할인", "benefit_type": "discount", "discount_rate": 30},
		{"brand": "GS25", "category": "편의점", "title": "도시락 1+1", "benefit_type": "coupon"}
	]`)

	records, err := loadOfferRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "스타벅스", records[0].Brand)
	assert.Equal(t, 30.0, records[0].DiscountRate)
	assert.Equal(t, "coupon", records[1].BenefitType)
}

func TestLoadOfferRecords_YAML(t *testing.T) {
	path := writeTemp(t, "offers.yaml", `
- brand: 스타벅스
  category: 카페
  title: 아메리카노 30% 할인
  benefit_type: discount
  discount_rate: 30
  valid_to: "2026-12-31"
- brand: 올리브영
  category: 뷰티
  title: 샘플 증정
  benefit_type: gift
  active: false
`)

	records, err := loadOfferRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "discount", records[0].BenefitType)
	assert.Equal(t, 30.0, records[0].DiscountRate)
	assert.Equal(t, "2026-12-31", records[0].ValidTo)
	require.NotNil(t, records[1].Active)
	assert.False(t, *records[1].Active)
}

func TestLoadOfferRecords_Malformed(t *testing.T) {
	_, err := loadOfferRecords(writeTemp(t, "offers.json", `{not json`))
	assert.Error(t, err)

	_, err = loadOfferRecords(writeTemp(t, "offers.yml", "\t- bad yaml"))
	assert.Error(t, err)

	_, err = loadOfferRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRecordToOffer(t *testing.T) {
	o, err := recordToOffer(offerRecord{
		Brand:       "스타벅스",
		Category:    "카페",
		Title:       "아메리카노 30% 할인",
		BenefitType: "discount",
		ValidTo:     "2026-12-31",
	})
	require.NoError(t, err)
	assert.Equal(t, offer.BenefitDiscount, o.BenefitType)
	assert.True(t, o.Active)
	require.NotNil(t, o.ValidTo)

	_, err = recordToOffer(offerRecord{Category: "카페", Title: "제목만"})
	assert.Error(t, err)

	_, err = recordToOffer(offerRecord{Brand: "스타벅스", Title: "할인", ID: "not-a-uuid"})
	assert.Error(t, err)
}
