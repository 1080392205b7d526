package counselrank

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/lawnald/counselrank/internal/db/redis"
	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
	"github.com/lawnald/counselrank/internal/domain/rank"
	"github.com/lawnald/counselrank/internal/domain/rank/request"
	"github.com/lawnald/counselrank/internal/metrics"
	"github.com/lawnald/counselrank/internal/repository/catalog"
	"github.com/lawnald/counselrank/internal/repository/embcache"
	"github.com/lawnald/counselrank/internal/repository/presence"
	"github.com/lawnald/counselrank/internal/repository/snapshot"
	analysisuc "github.com/lawnald/counselrank/internal/usecase/analysis"
	indexinguc "github.com/lawnald/counselrank/internal/usecase/indexing"
	rankinguc "github.com/lawnald/counselrank/internal/usecase/ranking"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultMaxInputChars    = 8000
)

// Client is the counselrank SDK entry point. It runs the full ranking engine
// in-process over a caller-supplied catalog.
type Client struct {
	store    *dbRedis.Store
	index    *vectorstore.Store
	indexing *indexinguc.Service
	ranking  *rankinguc.Service
	memory   *presence.MemoryTracker
}

// New creates a counselrank Client. The provided context is used for the
// initial Redis readiness check when Redis is configured.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		weights:        rank.DefaultWeights(),
		presencePrefix: "counselrank:presence:",
		maxInputChars:  defaultMaxInputChars,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("counselrank: embedder required (use WithEmbedder)")
	}
	if len(cfg.professionals) == 0 && cfg.catalogPath == "" {
		return nil, errors.New("counselrank: catalog required (use WithCatalog or WithCatalogFile)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	taxonomy := cfg.taxonomy
	if taxonomy == nil {
		taxonomy = domain.DefaultTaxonomy()
	}

	cat, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var store *dbRedis.Store
	if cfg.redisAddr != "" {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("counselrank: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("counselrank: redis not ready: %w", err)
		}
	}

	var embedder domain.Embedder = &embedderAdapter{inner: cfg.embedder}
	if store != nil {
		embedder = embcache.New(embedder, store, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = domain.NewTruncatingEmbedder(embedder, cfg.maxInputChars)

	var snapshots indexinguc.SnapshotStore = noopSnapshots{}
	if cfg.snapshotPath != "" {
		snapshots = snapshot.New(cfg.snapshotPath)
	}

	index := vectorstore.New()
	indexing := indexinguc.New(cat, embedder, index, snapshots, logger).
		WithLimits(cfg.maxProfessionals, cfg.concurrency)

	var classifier domain.Classifier = noopClassifier{}
	if cfg.classifier != nil {
		classifier = &classifierAdapter{inner: cfg.classifier}
	}
	analysis := analysisuc.New(classifier, logger)

	var tracker rankinguc.PresenceTracker
	var memory *presence.MemoryTracker
	if store != nil {
		tracker = presence.NewRedisTracker(store, cfg.presencePrefix, logger)
	} else {
		memory = presence.NewMemoryTracker()
		tracker = memory
	}

	ranking := rankinguc.New(
		analysis, embedder, index, cat, tracker,
		taxonomy, cfg.weights, rank.DefaultContentTypeWeights(), logger,
	)

	return &Client{
		store:    store,
		index:    index,
		indexing: indexing,
		ranking:  ranking,
		memory:   memory,
	}, nil
}

func buildCatalog(cfg *clientConfig) (*catalog.Catalog, error) {
	if cfg.catalogPath != "" {
		cat, err := catalog.Load(cfg.catalogPath)
		if err != nil {
			return nil, fmt.Errorf("counselrank: load catalog: %w", err)
		}
		return cat, nil
	}
	records := make([]profile.Lawyer, 0, len(cfg.professionals))
	for _, p := range cfg.professionals {
		records = append(records, professionalToDomain(p))
	}
	cat, err := catalog.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("counselrank: build catalog: %w", err)
	}
	return cat, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// RebuildIndex re-embeds the whole catalog and swaps the index atomically.
// Safe to call concurrently with Search.
func (c *Client) RebuildIndex(ctx context.Context) error {
	if err := c.indexing.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("counselrank: rebuild index: %w", err)
	}
	return nil
}

// LoadOrRebuild restores the index from its snapshot, rebuilding when the
// snapshot is missing or corrupt.
func (c *Client) LoadOrRebuild(ctx context.Context) error {
	if err := c.indexing.LoadOrRebuild(ctx); err != nil {
		return fmt.Errorf("counselrank: load index: %w", err)
	}
	return nil
}

// InsertItem embeds one newly published item and appends it to the live
// index. itemType is "case" or "content".
func (c *Client) InsertItem(ctx context.Context, ownerID, itemType, text string, itemIndex int) error {
	err := c.indexing.InsertItem(ctx, ownerID, vectorstore.ItemType(itemType), text, itemIndex)
	if err != nil {
		return fmt.Errorf("counselrank: insert item: %w", err)
	}
	return nil
}

// Flush persists the current live index contents to the snapshot.
func (c *Client) Flush() error {
	if err := c.indexing.Flush(); err != nil {
		return fmt.Errorf("counselrank: flush: %w", err)
	}
	return nil
}

// IndexSize reports the number of items in the live index.
func (c *Client) IndexSize() int {
	return c.index.Len()
}

// MarkActive marks a professional as currently active for the given duration.
// Only effective with the in-memory presence tracker; with Redis, presence is
// driven by external key writes.
func (c *Client) MarkActive(ownerID string, ttl time.Duration) {
	if c.memory != nil {
		c.memory.MarkActive(ownerID, ttl)
	}
}

// Search ranks the catalog against a free-text query.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	sc := &searchConfig{}
	for _, o := range opts {
		o.applySearch(sc)
	}

	req, err := request.New(query, request.Filters{
		Location:  sc.filters.Location,
		Gender:    sc.filters.Gender,
		Education: sc.filters.Education,
		CareerTag: sc.filters.CareerTag,
	}, sc.pageSize)
	if err != nil {
		return nil, fmt.Errorf("counselrank: invalid search: %w", err)
	}

	resp, err := c.ranking.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("counselrank: search: %w", err)
	}

	results := make([]SearchResult, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		prof := r.Profile()
		sr := SearchResult{
			OwnerID:           prof.ID,
			Name:              prof.Name,
			Firm:              prof.Firm,
			Location:          prof.Location,
			Score:             r.Score(),
			PracticeScore:     r.PracticeScore(),
			ContentScore:      r.ContentScore(),
			Explanation:       r.Explanation(),
			ContentHighlights: r.ContentHighlights(),
			Online:            r.Online(),
		}
		if bc := r.BestCase(); bc != nil {
			sr.BestCase = &Case{Title: bc.Title, Summary: bc.Summary}
		}
		if bc := r.BestContent(); bc != nil {
			sr.BestContent = &ContentItem{
				Title:     bc.Title,
				Summary:   bc.Summary,
				Type:      string(bc.Type),
				Verified:  bc.Verified,
				TopicTags: bc.TopicTags,
			}
		}
		results[i] = sr
	}

	return &SearchResponse{
		Results:         results,
		Analysis:        analysisFromDomain(resp.Analysis),
		AnalysisSummary: resp.Summary,
		Message:         resp.Message,
		Degraded:        resp.Degraded,
	}, nil
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// classifierAdapter wraps the public Classifier to satisfy internal domain.Classifier.
type classifierAdapter struct {
	inner Classifier
}

func (a *classifierAdapter) Classify(ctx context.Context, query string) (domain.QueryAnalysis, error) {
	r, err := a.inner.Classify(ctx, query)
	if err != nil {
		return domain.QueryAnalysis{}, fmt.Errorf("classify: %w", err)
	}
	return analysisToDomain(r), nil
}

// noopClassifier always fails, which the analysis service degrades into the
// fallback domain (used when no classifier is configured).
type noopClassifier struct{}

func (noopClassifier) Classify(context.Context, string) (domain.QueryAnalysis, error) {
	return domain.QueryAnalysis{}, errors.New("counselrank: classifier not configured")
}

// noopSnapshots disables disk persistence (used when no snapshot path is
// configured). Load reports a missing snapshot so startup falls back to a
// rebuild.
type noopSnapshots struct{}

func (noopSnapshots) Save([]vectorstore.Entry) error { return nil }

func (noopSnapshots) Load() ([]vectorstore.Entry, error) { return nil, os.ErrNotExist }
