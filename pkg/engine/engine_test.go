package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benefitlab/benefit-engine/internal/config"
	"github.com/benefitlab/benefit-engine/internal/embedding"
	"github.com/benefitlab/benefit-engine/internal/livesearch"
	"github.com/benefitlab/benefit-engine/internal/observability"
	"github.com/benefitlab/benefit-engine/internal/offer"
	"github.com/benefitlab/benefit-engine/internal/profile"
	"github.com/benefitlab/benefit-engine/internal/retrieval"
)

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Database.Driver = "memory"
	cfg.Cache.Driver = "memory"
	cfg.Embedding.APIKey = ""
	cfg.LiveSearch.APIKey = ""

	eng, err := New(cfg, observability.Discard(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func testOffers() []*offer.Offer {
	return []*offer.Offer{
		{
			ID:           uuid.New(),
			Brand:        "스타벅스",
			Category:     "카페",
			Title:        "아메리카노 30% 할인",
			BenefitType:  offer.BenefitDiscount,
			DiscountRate: 30,
			Active:       true,
		},
		{
			ID:          uuid.New(),
			Brand:       "GS25",
			Category:    "편의점",
			Title:       "도시락 1+1 쿠폰",
			BenefitType: offer.BenefitCoupon,
			Active:      true,
		},
		{
			ID:          uuid.New(),
			Brand:       "쿠팡",
			Category:    "온라인쇼핑",
			Title:       "와우회원 적립 혜택",
			BenefitType: offer.BenefitPoints,
			Active:      true,
		},
	}
}

func TestEngineRecommendDirectBrand(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	n, err := eng.Ingest(ctx, testOffers())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	resp, err := eng.Recommend(ctx, Request{
		UserID: "user-1",
		Query:  "스타벅스 할인 혜택 알려줘",
	})
	require.NoError(t, err)

	assert.Equal(t, string(retrieval.StrategyDirectBrand), resp.Strategy)
	require.Len(t, resp.Offers, 1)
	assert.Equal(t, "스타벅스", resp.Offers[0].Offer.Brand)
	assert.Contains(t, resp.Message, "아메리카노 30% 할인")
}

func TestEngineRecommendEmptyQuery(t *testing.T) {
	eng := testEngine(t)

	_, err := eng.Recommend(context.Background(), Request{UserID: "u", Query: ""})
	assert.Error(t, err)
}

func TestEngineRecommendWithHistory(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, testOffers())
	require.NoError(t, err)

	history := []profile.Transaction{
		{Brand: "스타벅스", Category: "카페", Amount: 5500, Date: time.Now().AddDate(0, 0, -3)},
		{Brand: "스타벅스", Category: "카페", Amount: 4800, Date: time.Now().AddDate(0, 0, -10)},
	}

	resp, err := eng.Recommend(ctx, Request{
		UserID:  "user-2",
		Query:   "스타벅스 혜택 있어?",
		History: history,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Offers)
	assert.Greater(t, resp.Offers[0].Score, 0.0)
	assert.Contains(t, resp.Message, "소비 이력")
}

func TestEngineSessionRecording(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, testOffers())
	require.NoError(t, err)

	_, err = eng.Recommend(ctx, Request{UserID: "user-3", Query: "GS25 혜택 알려줘"})
	require.NoError(t, err)

	turns, err := eng.History(ctx, "user-3")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "GS25 혜택 알려줘", turns[0].Content)
	assert.Equal(t, "assistant", turns[1].Role)

	require.NoError(t, eng.ClearSession(ctx, "user-3"))
	turns, err = eng.History(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestEngineResponseCaching(t *testing.T) {
	eng := testEngine(t)
	eng.cfg.Retrieval.CacheResults = true
	ctx := context.Background()

	_, err := eng.Ingest(ctx, testOffers())
	require.NoError(t, err)

	first, err := eng.Recommend(ctx, Request{UserID: "user-4", Query: "쿠팡 적립 혜택"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := eng.Recommend(ctx, Request{UserID: "user-4", Query: "쿠팡 적립 혜택"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Message, second.Message)
}

func TestEngineLiveSearchFallback(t *testing.T) {
	searcher := &livesearch.MockSearcher{
		Result: livesearch.Result{Success: true, Content: "파파존스는 앱 주문 시 30% 할인을 제공합니다."},
	}
	eng := testEngine(t, WithSearcher(searcher))
	ctx := context.Background()

	_, err := eng.Ingest(ctx, testOffers())
	require.NoError(t, err)

	resp, err := eng.Recommend(ctx, Request{UserID: "user-5", Query: "파파존스 할인 있어?"})
	require.NoError(t, err)

	assert.Equal(t, string(retrieval.StrategyLiveSearch), resp.Strategy)
	assert.Empty(t, resp.Offers)
	assert.Contains(t, resp.Message, "파파존스는 앱 주문 시 30% 할인을 제공합니다.")
	assert.Equal(t, 1, searcher.Calls)
}

func TestEngineVectorSearchWithMockEmbedder(t *testing.T) {
	eng := testEngine(t, WithEmbedder(embedding.NewMockClient(16)))
	ctx := context.Background()

	_, err := eng.Ingest(ctx, testOffers())
	require.NoError(t, err)

	history := []profile.Transaction{
		{Brand: "스타벅스", Category: "카페", Amount: 5500, Date: time.Now().AddDate(0, 0, -2)},
	}

	resp, err := eng.Recommend(ctx, Request{
		UserID:  "user-6",
		Query:   "내 소비 패턴에 맞는 혜택 추천해줘",
		History: history,
	})
	require.NoError(t, err)

	assert.Equal(t, string(retrieval.StrategyVectorSearch), resp.Strategy)
	require.NotEmpty(t, resp.Offers)
	for _, rec := range resp.Offers {
		assert.GreaterOrEqual(t, rec.Score, 0.0)
		assert.LessOrEqual(t, rec.Score, 1.0)
	}
}

func TestEngineCatalogListing(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	_, err := eng.Ingest(ctx, testOffers())
	require.NoError(t, err)

	assert.Contains(t, eng.Brands(), "스타벅스")
	assert.Contains(t, eng.Categories(), "카페")

	count, err := eng.OfferCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, eng.Ready(ctx))
}
