// Package analysis memoizes query classification for the process lifetime.
// The cache key is the exact query string (case- and whitespace-sensitive)
// and entries are never invalidated: query semantics are assumed stable
// within a deployment.
package analysis

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/metrics"
)

// Service turns free text into a QueryAnalysis, fail-open.
type Service struct {
	classifier Classifier
	logger     *zap.Logger

	mu    sync.RWMutex
	cache map[string]domain.QueryAnalysis
}

// New creates an analysis service.
func New(classifier Classifier, logger *zap.Logger) *Service {
	return &Service{
		classifier: classifier,
		logger:     logger,
		cache:      make(map[string]domain.QueryAnalysis),
	}
}

// Analyze returns the memoized analysis for query, calling the external
// classifier on first sight. A failed or unparseable classification degrades
// to DegradedAnalysis rather than an error: a broken classifier must not
// prevent search, only lower ranking quality. Degraded results are not
// cached, so a recovered classifier serves the next identical query.
//
// Concurrent first-sight misses on the same query may race and classify
// twice; that is idempotent and cheaper than serializing unrelated queries.
func (s *Service) Analyze(ctx context.Context, query string) (domain.QueryAnalysis, bool) {
	s.mu.RLock()
	cached, ok := s.cache[query]
	s.mu.RUnlock()
	if ok {
		metrics.ClassifierCacheTotal.WithLabelValues("hit").Inc()
		return cached, false
	}

	metrics.ClassifierCacheTotal.WithLabelValues("miss").Inc()

	result, err := s.classifier.Classify(ctx, query)
	if err != nil {
		s.logger.Warn("Query classification degraded", zap.Error(err))
		return domain.DegradedAnalysis(query), true
	}

	s.mu.Lock()
	s.cache[query] = result
	s.mu.Unlock()

	return result, false
}

// CacheSize returns the number of memoized analyses.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
