// Package engine provides the embedded benefit recommendation engine.
// It wires the classifier, offer store, retrieval pipeline, and session
// context into a single facade used by the API server and CLI.
package engine

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/benefitlab/benefit-engine/internal/cache"
	"github.com/benefitlab/benefit-engine/internal/classify"
	"github.com/benefitlab/benefit-engine/internal/config"
	"github.com/benefitlab/benefit-engine/internal/embedding"
	"github.com/benefitlab/benefit-engine/internal/livesearch"
	"github.com/benefitlab/benefit-engine/internal/observability"
	"github.com/benefitlab/benefit-engine/internal/offer"
	"github.com/benefitlab/benefit-engine/internal/profile"
	"github.com/benefitlab/benefit-engine/internal/retrieval"
	"github.com/benefitlab/benefit-engine/internal/session"
)

// Engine is the embedded recommendation engine.
type Engine struct {
	logger   *observability.Logger
	cfg      *config.Config
	store    offer.Store
	catalog  *offer.Catalog
	cache    cache.Client
	sessions session.Store
	embedder embedding.Embedder
	pipeline *retrieval.Pipeline
}

// Request is a single recommendation query.
type Request struct {
	UserID  string                `json:"user_id"`
	Query   string                `json:"query"`
	History []profile.Transaction `json:"history,omitempty"`

	// ShowScores includes personalization scores in the message.
	ShowScores bool `json:"show_scores,omitempty"`
}

// RecommendedOffer is one ranked offer in a response.
type RecommendedOffer struct {
	Offer *offer.Offer `json:"offer"`
	Score float64      `json:"score"`
}

// Response is the outcome of a recommendation query.
type Response struct {
	Message  string             `json:"message"`
	Strategy string             `json:"strategy"`
	Offers   []RecommendedOffer `json:"offers,omitempty"`
	Cached   bool               `json:"cached,omitempty"`
}

// Option overrides an engine dependency, mainly for tests.
type Option func(*overrides)

type overrides struct {
	embedder embedding.Embedder
	searcher livesearch.Searcher
	store    offer.Store
}

// WithEmbedder replaces the configured embedding client.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *overrides) { o.embedder = e }
}

// WithSearcher replaces the configured live search client.
func WithSearcher(s livesearch.Searcher) Option {
	return func(o *overrides) { o.searcher = s }
}

// WithStore replaces the configured offer store.
func WithStore(s offer.Store) Option {
	return func(o *overrides) { o.store = s }
}

// New builds an engine from configuration. Optional backends degrade
// gracefully: without an embedding key vector search is skipped, and
// without a live search key the last fallback is disabled.
func New(cfg *config.Config, logger *observability.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var ov overrides
	for _, opt := range opts {
		opt(&ov)
	}
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{
			Level:  cfg.Observability.LogLevel,
			Format: cfg.Observability.LogFormat,
		})
	}

	store := ov.store
	if store == nil {
		var err error
		store, err = openStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	cacheClient, err := openCache(cfg)
	if err != nil {
		return nil, err
	}

	classifier, err := classify.NewClassifier(classify.DefaultDictionaries())
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	embedder := ov.embedder
	if embedder == nil && cfg.Embedding.APIKey != "" && cfg.Embedding.BaseURL != "" {
		client, err := embedding.NewClient(embedding.Config{
			APIKey:    cfg.Embedding.APIKey,
			Model:     cfg.Embedding.Model,
			BaseURL:   cfg.Embedding.BaseURL,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   cfg.Embedding.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("build embedding client: %w", err)
		}
		embedder = client
	} else if embedder == nil {
		logger.Warn().Msg("embedding API not configured, vector search disabled")
	}

	searcher := ov.searcher
	if searcher == nil && cfg.LiveSearch.APIKey != "" {
		client, err := livesearch.NewClient(livesearch.Config{
			APIKey:    cfg.LiveSearch.APIKey,
			BaseURL:   cfg.LiveSearch.BaseURL,
			Model:     cfg.LiveSearch.Model,
			MaxTokens: cfg.LiveSearch.MaxTokens,
			Timeout:   cfg.LiveSearch.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("build live search client: %w", err)
		}
		searcher = client
	} else if searcher == nil {
		logger.Warn().Msg("live search API not configured, web fallback disabled")
	}

	catalog := offer.NewCatalog()
	if err := catalog.Load(context.Background(), store); err != nil {
		logger.Warn().Err(err).Msg("catalog preload failed, brand validation degraded")
	}

	pipeline, err := retrieval.NewPipeline(logger, classifier, store, catalog, embedder, searcher, retrieval.Config{
		TopK:       cfg.Retrieval.TopK,
		PoolFactor: cfg.Retrieval.VectorPoolFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	sessionCfg := session.Config{
		MaxSessions: cfg.Session.MaxSessions,
		MaxTurns:    cfg.Session.MaxTurns,
		TTL:         cfg.Session.TTL,
	}

	var sessions session.Store
	if cfg.Cache.Driver == "redis" {
		sessions = session.NewCacheStore(cacheClient, sessionCfg)
	} else {
		sessions = session.NewMemoryStore(sessionCfg)
	}

	return &Engine{
		logger:   logger,
		cfg:      cfg,
		store:    store,
		catalog:  catalog,
		cache:    cacheClient,
		sessions: sessions,
		embedder: embedder,
		pipeline: pipeline,
	}, nil
}

func openStore(cfg *config.Config) (offer.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		return offer.NewMemoryStore(), nil
	case "sqlite", "postgres":
		driver := cfg.Database.Driver
		dsn := cfg.DatabaseDSN()
		name := driver
		if driver == "sqlite" {
			name = "sqlite3"
		}

		db, err := sql.Open(name, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s database: %w", driver, err)
		}

		if driver == "postgres" {
			db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
			db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
		} else {
			db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
		}

		store := offer.NewSQLStore(db, driver)
		if err := store.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

func openCache(cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return client, nil
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
}

// Recommend resolves a query into a chat response.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query is empty")
	}

	start := time.Now()
	log := e.logger.WithContext(ctx).WithUser(req.UserID).WithOperation("engine.recommend")

	if cached := e.cachedResponse(ctx, req); cached != nil {
		log.Debug().Msg("served from cache")
		cached.Cached = true
		return cached, nil
	}

	res, err := e.pipeline.Run(ctx, req.Query, req.History)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	formatter := retrieval.Formatter{ShowScores: req.ShowScores}
	resp := &Response{
		Message:  formatter.Format(res),
		Strategy: string(res.Strategy),
	}
	for _, sc := range res.Offers {
		resp.Offers = append(resp.Offers, RecommendedOffer{Offer: sc.Offer, Score: sc.Score})
	}

	e.storeResponse(ctx, req, resp)
	e.recordTurns(ctx, req, resp)

	log.Info().
		Str("strategy", resp.Strategy).
		Int("offers", len(resp.Offers)).
		Dur("latency", time.Since(start)).
		Msg("recommendation served")

	return resp, nil
}

// History returns the user's recent conversation turns.
func (e *Engine) History(ctx context.Context, userID string) ([]session.Turn, error) {
	return e.sessions.History(ctx, userID)
}

// ClearSession drops the user's conversation context.
func (e *Engine) ClearSession(ctx context.Context, userID string) error {
	return e.sessions.Clear(ctx, userID)
}

// Ingest embeds and stores offers, then refreshes the brand catalog.
func (e *Engine) Ingest(ctx context.Context, offers []*offer.Offer) (int, error) {
	inserted := 0
	for _, o := range offers {
		if o.Embedding == nil && e.embedder != nil {
			vec, err := e.embedder.Embed(ctx, o.SearchText())
			if err != nil {
				return inserted, fmt.Errorf("embed offer %s: %w", o.ID, err)
			}
			o.Embedding = embedding.Normalize(vec)
		}
		if err := e.store.Insert(ctx, o); err != nil {
			return inserted, fmt.Errorf("insert offer %s: %w", o.ID, err)
		}
		inserted++
	}

	if err := e.catalog.Load(ctx, e.store); err != nil {
		e.logger.Warn().Err(err).Msg("catalog refresh failed after ingest")
	}
	return inserted, nil
}

// Brands returns all brands present in the catalog.
func (e *Engine) Brands() []string {
	return e.catalog.Brands()
}

// Categories returns all categories present in the catalog.
func (e *Engine) Categories() []string {
	return e.catalog.Categories()
}

// OfferCount returns the size of the offer catalog.
func (e *Engine) OfferCount(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// Ready reports whether the engine can serve queries.
func (e *Engine) Ready(ctx context.Context) error {
	if _, err := e.store.Count(ctx); err != nil {
		return fmt.Errorf("offer store unavailable: %w", err)
	}
	return nil
}

// Close releases engine resources.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.store.Close(); err != nil {
		firstErr = err
	}
	if err := e.cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (e *Engine) cachedResponse(ctx context.Context, req Request) *Response {
	if !e.cfg.Retrieval.CacheResults {
		return nil
	}

	data, err := e.cache.Get(ctx, e.queryKey(req))
	if err != nil {
		return nil
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil
	}
	return &resp
}

func (e *Engine) storeResponse(ctx context.Context, req Request, resp *Response) {
	if !e.cfg.Retrieval.CacheResults {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, e.queryKey(req), data, e.cfg.Retrieval.CacheTTL); err != nil {
		e.logger.Debug().Err(err).Msg("response cache write failed")
	}
}

func (e *Engine) queryKey(req Request) string {
	sum := sha256.Sum256([]byte(req.Query))
	return cache.QueryCacheKey(req.UserID, hex.EncodeToString(sum[:8]), "response")
}

func (e *Engine) recordTurns(ctx context.Context, req Request, resp *Response) {
	if req.UserID == "" {
		return
	}

	now := time.Now()
	if err := e.sessions.Append(ctx, req.UserID, session.Turn{Role: "user", Content: req.Query, At: now}); err != nil {
		e.logger.Debug().Err(err).Msg("session append failed")
		return
	}
	if err := e.sessions.Append(ctx, req.UserID, session.Turn{Role: "assistant", Content: resp.Message, At: now}); err != nil {
		e.logger.Debug().Err(err).Msg("session append failed")
	}
}
