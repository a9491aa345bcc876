package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/benefitlab/benefit-engine/internal/classify"
	"github.com/benefitlab/benefit-engine/internal/embedding"
	"github.com/benefitlab/benefit-engine/internal/livesearch"
	"github.com/benefitlab/benefit-engine/internal/observability"
	"github.com/benefitlab/benefit-engine/internal/offer"
	"github.com/benefitlab/benefit-engine/internal/profile"
)

// Strategy identifies which search strategy produced a result.
type Strategy string

const (
	StrategyDirectBrand    Strategy = "direct_brand"
	StrategyDirectCategory Strategy = "direct_category"
	StrategyVectorSearch   Strategy = "vector_search"
	StrategyTextFallback   Strategy = "text_fallback"
	StrategyLiveSearch     Strategy = "live_search"
	StrategyNone           Strategy = "none"
)

// Config holds pipeline tuning parameters.
type Config struct {
	TopK       int
	PoolFactor int
	Weights    ScoreWeights
}

// Result is the outcome of a pipeline run.
type Result struct {
	Strategy       Strategy
	Offers         []Scored
	LiveContent    string
	MissingBrands  []string
	Classification classify.Result
	Profile        *profile.UserProfile
}

// Pipeline runs queries through an ordered fallback chain of search
// strategies: direct brand lookup, direct category lookup, vector
// search, text matching, then live web search. Each strategy hands off
// to the next when it produces nothing; external failures never abort
// the run.
type Pipeline struct {
	logger     *observability.Logger
	classifier *classify.Classifier
	store      offer.Store
	catalog    *offer.Catalog
	embedder   embedding.Embedder
	searcher   livesearch.Searcher
	scorer     *Scorer
	cfg        Config

	now func() time.Time
}

// NewPipeline wires a pipeline. Embedder and searcher may be nil, in
// which case their strategies are skipped.
func NewPipeline(logger *observability.Logger, classifier *classify.Classifier, store offer.Store,
	catalog *offer.Catalog, embedder embedding.Embedder, searcher livesearch.Searcher, cfg Config) (*Pipeline, error) {

	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if store == nil {
		return nil, fmt.Errorf("offer store is required")
	}
	if catalog == nil {
		catalog = offer.NewCatalog()
	}
	if logger == nil {
		logger = observability.DefaultLogger()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.PoolFactor <= 0 {
		cfg.PoolFactor = 3
	}

	return &Pipeline{
		logger:     logger,
		classifier: classifier,
		store:      store,
		catalog:    catalog,
		embedder:   embedder,
		searcher:   searcher,
		scorer:     NewScorer(cfg.Weights),
		cfg:        cfg,
		now:        time.Now,
	}, nil
}

// Run resolves a query into ranked offers for the given spending history.
func (p *Pipeline) Run(ctx context.Context, query string, history []profile.Transaction) (*Result, error) {
	now := p.now()
	cls := p.classifier.Classify(query)
	prof := profile.Build(history, now)

	res := &Result{
		Strategy:       StrategyNone,
		Classification: cls,
		Profile:        prof,
	}

	log := p.logger.WithContext(ctx).WithOperation("pipeline.run")
	log.Debug().
		Str("query", query).
		Strs("brands", cls.Brands).
		Strs("categories", cls.Categories).
		Bool("personalized", cls.Personalized).
		Msg("query classified")

	knownBrands, missing := p.validateBrands(cls)
	if len(missing) > 0 && len(knownBrands) == 0 && !cls.Personalized {
		// Every named brand is absent from the catalog. The catalog
		// cannot answer, so go straight to live search.
		log.Info().Strs("missing_brands", missing).Msg("all query brands unknown, using live search")
		res.MissingBrands = missing
		p.runLiveSearch(ctx, query, cls, res)
		return res, nil
	}

	searchQuery := query
	if cls.Personalized && len(knownBrands) == 0 {
		searchQuery = expandForPersonalization(query, prof)
		log.Debug().Str("expanded_query", searchQuery).Msg("personalization query expansion")
	}

	candidates, metric, strategy := p.search(ctx, searchQuery, knownBrands, cls.Categories, cls.BenefitType, now, log)

	if len(candidates) > 0 {
		scored := p.scorer.ScoreAll(candidates, metric, prof, cls.Spending)
		ranked := Rank(scored, p.cfg.TopK)
		if len(ranked) > 0 {
			res.Strategy = strategy
			res.Offers = ranked
			log.Info().Str("strategy", string(strategy)).Int("results", len(ranked)).Msg("pipeline completed")
			return res, nil
		}
	}

	p.runLiveSearch(ctx, query, cls, res)
	return res, nil
}

// search walks the catalog-backed strategies in order and returns the
// first non-empty candidate batch.
func (p *Pipeline) search(ctx context.Context, query string, brands, categories []string,
	benefitType string, now time.Time, log *observability.Logger) ([]Candidate, offer.Metric, Strategy) {

	pool := p.cfg.TopK * p.cfg.PoolFactor

	if len(brands) > 0 {
		if cands := p.directBrand(ctx, brands, now, log); len(cands) > 0 {
			return preferBenefitType(cands, benefitType), offer.MetricUnknown, StrategyDirectBrand
		}
	}

	// An empty brand hit still falls through here: the named brand may
	// have no eligible offers while the category does.
	if len(categories) > 0 {
		if cands := p.directCategory(ctx, categories, now, log); len(cands) > 0 {
			return preferBenefitType(cands, benefitType), offer.MetricUnknown, StrategyDirectCategory
		}
	}

	if cands, ok := p.vectorSearch(ctx, query, pool, now, log); ok {
		return cands, p.store.Metric(), StrategyVectorSearch
	}

	if cands := p.textFallback(ctx, query, pool, now, log); len(cands) > 0 {
		return cands, offer.MetricUnknown, StrategyTextFallback
	}

	return nil, offer.MetricUnknown, StrategyNone
}

// preferBenefitType narrows direct-lookup candidates to the benefit kind
// the query asked for. When nothing matches the hint, the full set is
// kept rather than losing the direct hit.
func preferBenefitType(cands []Candidate, benefitType string) []Candidate {
	if benefitType == "" {
		return cands
	}

	var matched []Candidate
	for _, c := range cands {
		if string(c.Offer.BenefitType) == benefitType {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return cands
	}
	return matched
}

// validateBrands splits query brands into catalog-known and missing.
func (p *Pipeline) validateBrands(cls classify.Result) (known, missing []string) {
	brands := cls.Brands
	for b := range cls.Spending {
		if !contains(brands, b) {
			brands = append(brands, b)
		}
	}

	for _, b := range brands {
		if p.catalog.HasBrand(b) {
			known = append(known, b)
		} else {
			missing = append(missing, b)
		}
	}
	return known, missing
}

func (p *Pipeline) directBrand(ctx context.Context, brands []string, now time.Time, log *observability.Logger) []Candidate {
	var out []Candidate
	for _, brand := range brands {
		offers, err := p.store.GetByBrand(ctx, brand)
		if err != nil {
			log.Warn().Err(err).Str("brand", brand).Msg("direct brand lookup failed")
			continue
		}
		out = append(out, eligibleCandidates(offers, now)...)
	}
	return out
}

func (p *Pipeline) directCategory(ctx context.Context, categories []string, now time.Time, log *observability.Logger) []Candidate {
	var out []Candidate
	for _, category := range categories {
		offers, err := p.store.GetByCategory(ctx, category)
		if err != nil {
			log.Warn().Err(err).Str("category", category).Msg("direct category lookup failed")
			continue
		}
		out = append(out, eligibleCandidates(offers, now)...)
	}
	return out
}

func (p *Pipeline) vectorSearch(ctx context.Context, query string, pool int, now time.Time, log *observability.Logger) ([]Candidate, bool) {
	if p.embedder == nil {
		return nil, false
	}

	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("embedding failed, falling back to text search")
		return nil, false
	}
	vec = embedding.Normalize(vec)

	neighbors, err := p.store.NearestNeighbors(ctx, vec, pool)
	if err != nil {
		log.Warn().Err(err).Msg("vector search failed, falling back to text search")
		return nil, false
	}

	var out []Candidate
	for _, n := range neighbors {
		if n.Offer.Eligible(now) {
			out = append(out, Candidate{Offer: n.Offer, Distance: n.Distance})
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Text matching weights favor brand mentions over everything else.
const (
	textBrandExact    = 0.6
	textBrandWordIn   = 0.4
	textBrandContains = 0.3
	textCategory      = 0.2
	textTitle         = 0.15
	textBenefitType   = 0.05
)

func (p *Pipeline) textFallback(ctx context.Context, query string, pool int, now time.Time, log *observability.Logger) []Candidate {
	offers, err := p.store.All(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("text fallback scan failed")
		return nil
	}

	lower := strings.ToLower(query)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return nil
	}

	var out []Candidate
	for _, o := range offers {
		if !o.Eligible(now) {
			continue
		}
		score := textScore(o, lower, words)
		if score <= 0 {
			continue
		}
		out = append(out, Candidate{Offer: o, Distance: 1 - score})
	}

	sortCandidates(out)
	if len(out) > pool {
		out = out[:pool]
	}
	return out
}

func textScore(o *offer.Offer, lower string, words []string) float64 {
	var score float64

	brand := strings.ToLower(o.Brand)
	switch {
	case strings.Contains(lower, brand):
		score += textBrandExact
	case anyWordIn(words, brand):
		score += textBrandWordIn
	case anyContains(words, brand):
		score += textBrandContains
	}

	if category := strings.ToLower(o.Category); category != "" && strings.Contains(lower, category) {
		score += textCategory
	}

	if title := strings.ToLower(o.Title); title != "" {
		matching := 0
		for _, w := range words {
			if strings.Contains(title, w) {
				matching++
			}
		}
		score += textTitle * float64(matching) / float64(len(words))
	}

	if bt := strings.ToLower(string(o.BenefitType)); bt != "" && strings.Contains(lower, bt) {
		score += textBenefitType
	}

	return score
}

func (p *Pipeline) runLiveSearch(ctx context.Context, query string, cls classify.Result, res *Result) {
	log := p.logger.WithContext(ctx).WithOperation("pipeline.live_search")

	if p.searcher == nil {
		log.Debug().Msg("live search unavailable")
		return
	}

	keywords := livesearch.SearchKeywords(cls.Brands, cls.Categories)
	lr, err := p.searcher.Search(ctx, query, keywords)
	if err != nil {
		log.Warn().Err(err).Msg("live search request failed")
		return
	}
	if !lr.Success {
		log.Warn().Str("error", lr.Err).Msg("live search returned no answer")
		return
	}

	res.Strategy = StrategyLiveSearch
	res.LiveContent = lr.Content
}

// expandForPersonalization widens a broad recommendation query with the
// user's top brands and categories so vector search lands near their
// spending habits.
func expandForPersonalization(query string, prof *profile.UserProfile) string {
	parts := []string{query}

	if brands := prof.TopBrands(3); len(brands) > 0 {
		parts = append(parts, strings.Join(brands, " "))
	}
	if categories := prof.TopCategories(2); len(categories) > 0 {
		parts = append(parts, strings.Join(categories, " "))
	}
	parts = append(parts, "혜택 할인 이벤트 추천")

	return strings.Join(parts, " ")
}

func eligibleCandidates(offers []*offer.Offer, now time.Time) []Candidate {
	var out []Candidate
	for _, o := range offers {
		if o.Eligible(now) {
			out = append(out, Candidate{Offer: o})
		}
	}
	return out
}

// sortCandidates orders by distance, breaking ties by offer ID so the
// same corpus always truncates to the same pool.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Distance != cands[j].Distance {
			return cands[i].Distance < cands[j].Distance
		}
		return cands[i].Offer.ID.String() < cands[j].Offer.ID.String()
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyWordIn(words []string, s string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func anyContains(words []string, s string) bool {
	for _, w := range words {
		if strings.Contains(w, s) {
			return true
		}
	}
	return false
}
