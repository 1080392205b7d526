// Package vectorstore holds the in-memory exact-similarity index. Vectors and
// item metadata live in a single entry slice, so the parity invariant between
// them is structural rather than conventional.
package vectorstore

import (
	"fmt"
	"math"
	"sync"

	"github.com/lawnald/counselrank/internal/domain"
)

// ItemType distinguishes indexed case summaries from published content.
type ItemType string

// Indexed item types.
const (
	ItemCase    ItemType = "case"
	ItemContent ItemType = "content"
)

// IsValid reports whether t is a known item type.
func (t ItemType) IsValid() bool {
	return t == ItemCase || t == ItemContent
}

// Item is the metadata record for one indexed vector. ItemIndex is the
// position within the owner's case or content list (a back-reference, not an
// ownership relation).
type Item struct {
	OwnerID   string   `json:"owner_id"`
	Type      ItemType `json:"type"`
	ItemIndex int      `json:"item_index"`
	Text      string   `json:"text"`
}

// Entry pairs one vector with its item metadata.
type Entry struct {
	Vector []float32
	Item   Item
}

// Store is the shared read-mostly similarity index. Many concurrent readers,
// occasional appends and wholesale rebuilds.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Len returns the number of indexed entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Append adds one entry to the index. O(1) amortized; callers must only call
// it after a successful embedding so the index never holds an item without a
// vector.
func (s *Store) Append(vector []float32, item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Vector: vector, Item: item})
}

// Rebuild replaces the index contents wholesale. The swap is atomic with
// respect to readers: an in-flight Similarities call keeps scoring the
// previous contents.
func (s *Store) Rebuild(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
}

// Entries returns a copy of the current contents, for snapshotting.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Similarities computes the cosine similarity of the query vector against
// every stored vector, in index order, together with the matching item
// snapshot taken under the same lock. Returns domain.ErrEmptyIndex when
// nothing is indexed; callers treat that as "no results", not a fault.
func (s *Store) Similarities(query []float32) ([]float64, []Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, nil, domain.ErrEmptyIndex
	}

	qNorm := norm(query)
	scores := make([]float64, len(s.entries))
	items := make([]Item, len(s.entries))
	for i, e := range s.entries {
		scores[i] = cosine(query, qNorm, e.Vector)
		items[i] = e.Item
	}
	return scores, items, nil
}

// cosine computes the cosine similarity between q (with precomputed norm) and v.
// Mismatched dimensions or zero vectors score 0.
func cosine(q []float32, qNorm float64, v []float32) float64 {
	if len(q) != len(v) || qNorm == 0 {
		return 0
	}
	var dot, vSq float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
		vSq += float64(v[i]) * float64(v[i])
	}
	if vSq == 0 {
		return 0
	}
	return dot / (qNorm * math.Sqrt(vSq))
}

func norm(v []float32) float64 {
	var sq float64
	for _, f := range v {
		sq += float64(f) * float64(f)
	}
	return math.Sqrt(sq)
}

// Validate checks an entry slice before it is accepted into the store
// (used by snapshot restore).
func Validate(entries []Entry) error {
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %d: empty vector", i)
		}
		if !e.Item.Type.IsValid() {
			return fmt.Errorf("entry %d: %w: %q", i, domain.ErrUnknownItemType, e.Item.Type)
		}
		if e.Item.OwnerID == "" {
			return fmt.Errorf("entry %d: empty owner id", i)
		}
	}
	return nil
}
