package indexing

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

type fakeCatalog struct {
	lawyers []profile.Lawyer
}

func (f *fakeCatalog) All() []profile.Lawyer { return f.lawyers }

// fakeEmbedder produces a deterministic vector per text so that rebuild
// determinism is observable, and fails for texts in failFor.
type fakeEmbedder struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failFor[text] {
		return domain.EmbeddingResult{}, errors.New("embedder down")
	}
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), sum, 1}}, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSnapshots struct {
	entries []vectorstore.Entry
	saved   int
	saveErr error
	loadErr error
}

func (f *fakeSnapshots) Save(entries []vectorstore.Entry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries = append([]vectorstore.Entry(nil), entries...)
	f.saved++
	return nil
}

func (f *fakeSnapshots) Load() ([]vectorstore.Entry, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]vectorstore.Entry(nil), f.entries...), nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{lawyers: []profile.Lawyer{
		{
			ID: "p-1",
			Cases: []profile.CaseSummary{
				{Title: "Custody dispute", Summary: "contested custody of two children"},
				{Title: "Divorce settlement", Summary: "asset division after separation"},
			},
			ContentItems: []profile.ContentItem{
				{Title: "Alimony guide", Summary: "how alimony is computed", Type: profile.ContentColumn, Verified: true},
				{Title: "Unverified draft", Summary: "not yet reviewed", Type: profile.ContentColumn, Verified: false},
				{Title: "Office tour", Summary: "a look inside", Type: profile.ContentBook, Verified: true},
			},
		},
		{
			ID: "p-2",
			Cases: []profile.CaseSummary{
				{Title: "Fraud defense", Summary: "acquitted on all counts"},
			},
			ContentItems: []profile.ContentItem{
				{Title: "Criminal procedure basics", Summary: "what to expect", Type: profile.ContentBlog, Verified: true},
			},
		},
	}}
}

func newTestService(catalog *fakeCatalog, embedder *fakeEmbedder, snapshots *fakeSnapshots) (*Service, *vectorstore.Store) {
	store := vectorstore.New()
	svc := New(catalog, embedder, store, snapshots, zap.NewNop()).WithLimits(0, 4)
	return svc, store
}

func TestRebuildIndexIsDeterministic(t *testing.T) {
	catalog := testCatalog()
	embedder := &fakeEmbedder{}
	svc, store := newTestService(catalog, embedder, &fakeSnapshots{})

	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	first := store.Entries()

	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	second := store.Entries()

	// 3 cases + 2 verified allow-listed content items; the unverified column
	// and the book type are excluded.
	if len(first) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(first))
	}
	if len(first) != len(second) {
		t.Fatalf("rebuild sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Item != second[i].Item {
			t.Errorf("entry %d item differs: %+v vs %+v", i, first[i].Item, second[i].Item)
		}
		for d := range first[i].Vector {
			if first[i].Vector[d] != second[i].Vector[d] {
				t.Fatalf("entry %d vector differs at dim %d", i, d)
			}
		}
	}

	// Catalog order, cases before content, within one professional.
	if first[0].Item.OwnerID != "p-1" || first[0].Item.Type != vectorstore.ItemCase {
		t.Errorf("unexpected first entry: %+v", first[0].Item)
	}
	if first[2].Item.OwnerID != "p-1" || first[2].Item.Type != vectorstore.ItemContent {
		t.Errorf("unexpected third entry: %+v", first[2].Item)
	}
	// ItemIndex points into the owner's full content list, holes included.
	if first[2].Item.ItemIndex != 0 {
		t.Errorf("expected content item index 0, got %d", first[2].Item.ItemIndex)
	}
}

func TestRebuildIndexSkipsFailedEmbeddings(t *testing.T) {
	catalog := testCatalog()
	embedder := &fakeEmbedder{failFor: map[string]bool{
		"Fraud defense acquitted on all counts": true,
	}}
	snapshots := &fakeSnapshots{}
	svc, store := newTestService(catalog, embedder, snapshots)

	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	entries := store.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries after one skip, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Item.OwnerID == "p-2" && e.Item.Type == vectorstore.ItemCase {
			t.Errorf("failed item should not be indexed: %+v", e.Item)
		}
	}
	if snapshots.saved != 1 {
		t.Errorf("expected snapshot save despite skips, got %d saves", snapshots.saved)
	}
}

func TestRebuildIndexCapsProfessionals(t *testing.T) {
	catalog := testCatalog()
	embedder := &fakeEmbedder{}
	svc, store := newTestService(catalog, embedder, &fakeSnapshots{})
	svc.WithLimits(1, 4)

	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	for _, e := range store.Entries() {
		if e.Item.OwnerID != "p-1" {
			t.Errorf("professional beyond cap indexed: %+v", e.Item)
		}
	}
	if store.Len() != 3 {
		t.Errorf("expected 3 entries for first professional, got %d", store.Len())
	}
}

func TestRebuildIndexSurvivesSnapshotFailure(t *testing.T) {
	svc, store := newTestService(testCatalog(), &fakeEmbedder{}, &fakeSnapshots{saveErr: errors.New("disk full")})

	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild should tolerate snapshot failure: %v", err)
	}
	if store.Len() == 0 {
		t.Fatal("live index should be populated even when the snapshot fails")
	}
}

func TestInsertItem(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, store := newTestService(testCatalog(), embedder, &fakeSnapshots{})
	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	before := store.Entries()

	err := svc.InsertItem(context.Background(), "p-2", vectorstore.ItemContent, "New column on sentencing appeals", 1)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	after := store.Entries()
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d entries, got %d", len(before)+1, len(after))
	}
	for i := range before {
		if before[i].Item != after[i].Item {
			t.Errorf("existing entry %d changed by insert", i)
		}
	}
	got := after[len(after)-1].Item
	if got.OwnerID != "p-2" || got.Type != vectorstore.ItemContent || got.ItemIndex != 1 {
		t.Errorf("unexpected appended item: %+v", got)
	}
}

func TestInsertItemRejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(testCatalog(), &fakeEmbedder{}, &fakeSnapshots{})

	err := svc.InsertItem(context.Background(), "p-1", vectorstore.ItemType("reel"), "short clip", 0)
	if !errors.Is(err, domain.ErrUnknownItemType) {
		t.Fatalf("expected ErrUnknownItemType, got %v", err)
	}
}

func TestInsertItemEmbedFailureIsNoOp(t *testing.T) {
	embedder := &fakeEmbedder{failFor: map[string]bool{"broken text": true}}
	svc, store := newTestService(testCatalog(), embedder, &fakeSnapshots{})

	err := svc.InsertItem(context.Background(), "p-1", vectorstore.ItemContent, "broken text", 0)
	if err == nil {
		t.Fatal("expected error from failed embedding")
	}
	if store.Len() != 0 {
		t.Errorf("failed insert must not touch the index, got %d entries", store.Len())
	}
}

func TestLoadOrRebuildPrefersSnapshot(t *testing.T) {
	snapshots := &fakeSnapshots{entries: []vectorstore.Entry{
		{Vector: []float32{1, 0, 0}, Item: vectorstore.Item{OwnerID: "p-9", Type: vectorstore.ItemCase, Text: "restored"}},
	}}
	embedder := &fakeEmbedder{}
	svc, store := newTestService(testCatalog(), embedder, snapshots)

	if err := svc.LoadOrRebuild(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if embedder.callCount() != 0 {
		t.Errorf("snapshot restore must not call the embedder, got %d calls", embedder.callCount())
	}
	if store.Len() != 1 || store.Entries()[0].Item.OwnerID != "p-9" {
		t.Errorf("index not restored from snapshot")
	}
}

func TestLoadOrRebuildFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		loadErr error
	}{
		{"missing snapshot", os.ErrNotExist},
		{"corrupt snapshot", domain.ErrCorruptSnapshot},
		{"read error", errors.New("permission denied")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := &fakeEmbedder{}
			svc, store := newTestService(testCatalog(), embedder, &fakeSnapshots{loadErr: tt.loadErr})

			if err := svc.LoadOrRebuild(context.Background()); err != nil {
				t.Fatalf("load or rebuild: %v", err)
			}
			if store.Len() != 5 {
				t.Errorf("expected full rebuild of 5 entries, got %d", store.Len())
			}
			if embedder.callCount() == 0 {
				t.Error("fallback rebuild should have embedded the catalog")
			}
		})
	}
}

func TestFlush(t *testing.T) {
	snapshots := &fakeSnapshots{}
	svc, store := newTestService(testCatalog(), &fakeEmbedder{}, snapshots)
	store.Append([]float32{1, 2, 3}, vectorstore.Item{OwnerID: "p-1", Type: vectorstore.ItemCase, Text: "x"})

	if err := svc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(snapshots.entries) != 1 {
		t.Errorf("expected 1 persisted entry, got %d", len(snapshots.entries))
	}
}
