package ranking

import (
	"context"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

// Analyzer produces the structured query analysis. The bool reports whether
// the analysis is degraded (classifier unreachable or unparseable).
type Analyzer interface {
	Analyze(ctx context.Context, query string) (domain.QueryAnalysis, bool)
}

// Embedder converts the matching text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex scores a query vector against every indexed item.
type VectorIndex interface {
	Similarities(query []float32) ([]float64, []vectorstore.Item, error)
}

// CatalogReader resolves indexed owner ids to full professional records.
type CatalogReader interface {
	Get(id string) (profile.Lawyer, error)
}

// PresenceTracker reports live activity. It never fails: unknown means inactive.
type PresenceTracker interface {
	IsActive(ctx context.Context, ownerID string) bool
}
