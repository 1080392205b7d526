package chi

import (
	"context"

	"github.com/lawnald/counselrank/internal/domain/rank/request"
	"github.com/lawnald/counselrank/internal/usecase/health"
	"github.com/lawnald/counselrank/internal/usecase/ranking"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

// Searcher runs the ranking pipeline for one query.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (ranking.Response, error)
}

// Indexer exposes the administrative index operations.
type Indexer interface {
	RebuildIndex(ctx context.Context) error
	InsertItem(ctx context.Context, ownerID string, itemType vectorstore.ItemType, text string, itemIndex int) error
	Flush() error
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
