package vectorstore

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/lawnald/counselrank/internal/domain"
)

func entry(owner string, t ItemType, idx int, vec ...float32) Entry {
	return Entry{Vector: vec, Item: Item{OwnerID: owner, Type: t, ItemIndex: idx, Text: "t"}}
}

func TestSimilarities_EmptyIndex(t *testing.T) {
	s := New()
	_, _, err := s.Similarities([]float32{1, 0})
	if !errors.Is(err, domain.ErrEmptyIndex) {
		t.Fatalf("expected ErrEmptyIndex, got %v", err)
	}
}

func TestSimilarities_CosineValues(t *testing.T) {
	s := New()
	s.Append([]float32{1, 0}, Item{OwnerID: "a", Type: ItemCase})
	s.Append([]float32{0, 1}, Item{OwnerID: "b", Type: ItemCase})
	s.Append([]float32{-1, 0}, Item{OwnerID: "c", Type: ItemCase})

	scores, items, err := s.Similarities([]float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 3 || len(items) != 3 {
		t.Fatalf("expected 3 scores and items, got %d/%d", len(scores), len(items))
	}
	want := []float64{1, 0, -1}
	for i, w := range want {
		if math.Abs(scores[i]-w) > 1e-9 {
			t.Errorf("score[%d] = %v, want %v", i, scores[i], w)
		}
	}
	if items[0].OwnerID != "a" || items[2].OwnerID != "c" {
		t.Error("items not returned in index order")
	}
}

func TestSimilarities_DimensionMismatchScoresZero(t *testing.T) {
	s := New()
	s.Append([]float32{1, 0, 0}, Item{OwnerID: "a", Type: ItemCase})

	scores, _, err := s.Similarities([]float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores[0] != 0 {
		t.Errorf("mismatched dimensions should score 0, got %v", scores[0])
	}
}

func TestRebuild_ReplacesWholesale(t *testing.T) {
	s := New()
	s.Append([]float32{1, 0}, Item{OwnerID: "old", Type: ItemCase})

	s.Rebuild([]Entry{
		entry("x", ItemCase, 0, 0, 1),
		entry("y", ItemContent, 1, 1, 0),
	})

	if s.Len() != 2 {
		t.Fatalf("expected 2 entries after rebuild, got %d", s.Len())
	}
	_, items, err := s.Similarities([]float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].OwnerID != "x" || items[1].OwnerID != "y" {
		t.Error("rebuild did not replace contents")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := New()
	s.Append([]float32{1, 0}, Item{OwnerID: "a", Type: ItemCase})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				scores, items, err := s.Similarities([]float32{1, 0})
				if err != nil {
					t.Errorf("reader error: %v", err)
					return
				}
				if len(scores) != len(items) {
					t.Error("scores and items diverged in length")
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Append([]float32{0, 1}, Item{OwnerID: "b", Type: ItemContent})
			}
		}()
	}
	wg.Wait()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{"ok", []Entry{entry("a", ItemCase, 0, 1, 2)}, false},
		{"empty vector", []Entry{{Item: Item{OwnerID: "a", Type: ItemCase}}}, true},
		{"bad type", []Entry{{Vector: []float32{1}, Item: Item{OwnerID: "a", Type: "podcast"}}}, true},
		{"no owner", []Entry{{Vector: []float32{1}, Item: Item{Type: ItemCase}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	s := New()
	s.Append([]float32{1}, Item{OwnerID: "a", Type: ItemCase})

	got := s.Entries()
	got[0].Item.OwnerID = "mutated"

	fresh := s.Entries()
	if fresh[0].Item.OwnerID != "a" {
		t.Error("Entries exposed internal state")
	}
}
