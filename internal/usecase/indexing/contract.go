package indexing

import (
	"context"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

// CatalogReader walks the professional catalog in stable order.
type CatalogReader interface {
	All() []profile.Lawyer
}

// Embedder vectorizes item text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// SnapshotStore persists and restores the index contents.
type SnapshotStore interface {
	Save(entries []vectorstore.Entry) error
	Load() ([]vectorstore.Entry, error)
}
