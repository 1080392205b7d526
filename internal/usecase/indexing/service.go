// Package indexing builds and maintains the vector index over the
// professional catalog: full deterministic rebuilds, single-item incremental
// inserts, and snapshot-backed startup.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
	"github.com/lawnald/counselrank/internal/metrics"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

// Service drives embedding and index population.
type Service struct {
	catalog   CatalogReader
	embedder  Embedder
	store     *vectorstore.Store
	snapshots SnapshotStore
	logger    *zap.Logger

	maxProfessionals int
	concurrency      int
	contentTypes     map[profile.ContentType]bool
}

// New creates an indexing service.
func New(
	catalog CatalogReader,
	embedder Embedder,
	store *vectorstore.Store,
	snapshots SnapshotStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		catalog:     catalog,
		embedder:    embedder,
		store:       store,
		snapshots:   snapshots,
		logger:      logger,
		concurrency: 1,
		contentTypes: map[profile.ContentType]bool{
			profile.ContentCase:    true,
			profile.ContentColumn:  true,
			profile.ContentBlog:    true,
			profile.ContentYoutube: true,
		},
	}
}

// WithLimits sets the per-rebuild professional cap (0 = unlimited) and the
// embedding concurrency.
func (s *Service) WithLimits(maxProfessionals, concurrency int) *Service {
	s.maxProfessionals = maxProfessionals
	if concurrency > 0 {
		s.concurrency = concurrency
	}
	return s
}

// WithContentTypes replaces the content-type allow-list for indexing.
func (s *Service) WithContentTypes(allow map[profile.ContentType]bool) *Service {
	if len(allow) > 0 {
		s.contentTypes = allow
	}
	return s
}

// job is one (text, item) pair awaiting embedding. Slot preserves the
// deterministic catalog order across the concurrent fan-out.
type job struct {
	slot int
	text string
	item vectorstore.Item
}

// RebuildIndex re-embeds the whole catalog into a fresh entry set and swaps
// it in atomically; concurrent searches keep reading the previous index until
// the swap. A single item's embedding failure skips that item, never the
// rebuild. Safe to call concurrently with itself: last swap wins over
// identical content.
func (s *Service) RebuildIndex(ctx context.Context) error {
	jobs := s.collectJobs()
	s.logger.Info("Starting index rebuild", zap.Int("items", len(jobs)))

	vectors := make([][]float32, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			result, err := s.embedder.Embed(gctx, j.text)
			if err != nil {
				// Skip this item; it becomes searchable on the next rebuild.
				s.logger.Warn("Skipping item: embedding failed",
					zap.String("owner_id", j.item.OwnerID),
					zap.String("type", string(j.item.Type)),
					zap.Int("item_index", j.item.ItemIndex),
					zap.Error(err),
				)
				return nil
			}
			vectors[j.slot] = result.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("rebuild embedding: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rebuild canceled: %w", err)
	}

	entries := make([]vectorstore.Entry, 0, len(jobs))
	for _, j := range jobs {
		if vectors[j.slot] == nil {
			continue
		}
		entries = append(entries, vectorstore.Entry{Vector: vectors[j.slot], Item: j.item})
	}

	s.store.Rebuild(entries)
	metrics.IndexedItems.Set(float64(len(entries)))
	s.logger.Info("Index rebuilt",
		zap.Int("indexed", len(entries)),
		zap.Int("skipped", len(jobs)-len(entries)),
	)

	if err := s.snapshots.Save(entries); err != nil {
		// The live index is already swapped in; losing the snapshot only
		// costs a re-embed after the next restart.
		s.logger.Error("Failed to persist index snapshot", zap.Error(err))
	}
	return nil
}

// collectJobs walks the catalog in deterministic order: catalog order, cases
// before content, stable sub-order. Two runs over identical data therefore
// produce index-identical results.
func (s *Service) collectJobs() []job {
	var jobs []job
	slot := 0

	processed := 0
	for _, lawyer := range s.catalog.All() {
		if s.maxProfessionals > 0 && processed >= s.maxProfessionals {
			break
		}
		processed++

		for i, c := range lawyer.Cases {
			jobs = append(jobs, job{
				slot: slot,
				text: c.Title + " " + c.Summary,
				item: vectorstore.Item{
					OwnerID:   lawyer.ID,
					Type:      vectorstore.ItemCase,
					ItemIndex: i,
					Text:      c.Title + " " + c.Summary,
				},
			})
			slot++
		}

		for i, c := range lawyer.ContentItems {
			if !c.Verified || !s.contentTypes[c.Type] {
				continue
			}
			jobs = append(jobs, job{
				slot: slot,
				text: c.Title + " " + c.Summary,
				item: vectorstore.Item{
					OwnerID:   lawyer.ID,
					Type:      vectorstore.ItemContent,
					ItemIndex: i,
					Text:      c.Title + " " + c.Summary,
				},
			})
			slot++
		}
	}
	return jobs
}

// InsertItem embeds one newly published item and appends it to the live
// index, so it is searchable without a full rebuild. The append is not
// persisted: durability comes from the next rebuild or an explicit flush. If
// the embedding call fails, the insert is a no-op and the item becomes
// searchable only after the next rebuild.
func (s *Service) InsertItem(
	ctx context.Context, ownerID string, itemType vectorstore.ItemType, text string, itemIndex int,
) error {
	if !itemType.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownItemType, itemType)
	}
	if ownerID == "" || text == "" {
		return fmt.Errorf("owner id and text are required")
	}

	result, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed new item: %w", err)
	}

	s.store.Append(result.Embedding, vectorstore.Item{
		OwnerID:   ownerID,
		Type:      itemType,
		ItemIndex: itemIndex,
		Text:      text,
	})
	metrics.IndexedItems.Set(float64(s.store.Len()))
	s.logger.Info("Indexed new item",
		zap.String("owner_id", ownerID),
		zap.String("type", string(itemType)),
		zap.Int("item_index", itemIndex),
	)
	return nil
}

// Flush persists the current live index contents.
func (s *Service) Flush() error {
	if err := s.snapshots.Save(s.store.Entries()); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// LoadOrRebuild restores the index from its snapshot, falling back to a full
// rebuild when the snapshot is missing, corrupt, or unreadable.
func (s *Service) LoadOrRebuild(ctx context.Context) error {
	entries, err := s.snapshots.Load()
	switch {
	case err == nil:
		s.store.Rebuild(entries)
		metrics.IndexedItems.Set(float64(len(entries)))
		s.logger.Info("Index restored from snapshot", zap.Int("items", len(entries)))
		return nil
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("No index snapshot, rebuilding from catalog")
	case errors.Is(err, domain.ErrCorruptSnapshot):
		s.logger.Warn("Corrupt index snapshot, rebuilding from catalog", zap.Error(err))
	default:
		s.logger.Warn("Failed to read index snapshot, rebuilding from catalog", zap.Error(err))
	}

	if err := s.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("fallback rebuild: %w", err)
	}
	return nil
}
