package counselrank

import (
	"go.uber.org/zap"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/rank"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	professionals []Professional
	catalogPath   string

	embedder   Embedder
	classifier Classifier

	redisAddr     string
	redisPassword string
	presencePrefix string

	snapshotPath     string
	maxProfessionals int
	concurrency      int
	maxInputChars    int

	taxonomy domain.Taxonomy
	weights  rank.Weights

	logger *zap.Logger
}

// WithCatalog supplies the professional catalog directly.
func WithCatalog(professionals []Professional) Option {
	return optionFunc(func(c *clientConfig) {
		c.professionals = professionals
	})
}

// WithCatalogFile loads the professional catalog from a JSON file.
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithClassifier sets the query classification provider. Without one every
// query is ranked with the fallback domain (fail-open).
func WithClassifier(cl Classifier) Option {
	return optionFunc(func(c *clientConfig) {
		c.classifier = cl
	})
}

// WithRedis enables the Redis-backed embedding cache and presence tracker.
// Without it embeddings are uncached and presence is tracked in memory.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
	})
}

// WithPresencePrefix overrides the Redis key prefix for presence lookups.
func WithPresencePrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.presencePrefix = prefix
	})
}

// WithSnapshotPath enables disk persistence of the vector index. Without it
// every process start re-embeds the catalog.
func WithSnapshotPath(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshotPath = path
	})
}

// WithRebuildLimits caps the professionals per rebuild (0 = unlimited) and
// sets the embedding concurrency.
func WithRebuildLimits(maxProfessionals, concurrency int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxProfessionals = maxProfessionals
		c.concurrency = concurrency
	})
}

// WithWeights overrides the score fusion weights.
func WithWeights(w rank.Weights) Option {
	return optionFunc(func(c *clientConfig) {
		c.weights = w
	})
}

// WithTaxonomy overrides the built-in practice-area taxonomy.
func WithTaxonomy(t domain.Taxonomy) Option {
	return optionFunc(func(c *clientConfig) {
		c.taxonomy = t
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// SearchOption configures one Search call.
type SearchOption interface {
	applySearch(*searchConfig)
}

type searchOptionFunc func(*searchConfig)

func (f searchOptionFunc) applySearch(c *searchConfig) { f(c) }

type searchConfig struct {
	filters  Filters
	pageSize int
}

// WithFilters applies hard metadata filters to one search.
func WithFilters(f Filters) SearchOption {
	return searchOptionFunc(func(c *searchConfig) {
		c.filters = f
	})
}

// WithPageSize overrides the result page size (default 10, max 50).
func WithPageSize(n int) SearchOption {
	return searchOptionFunc(func(c *searchConfig) {
		c.pageSize = n
	})
}
