// Package catalog serves the read-only professional catalog. Records are
// loaded once at startup; the engine only ever reads them.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/profile"
)

// Catalog holds the loaded professional records in file order.
type Catalog struct {
	lawyers []profile.Lawyer
	byID    map[string]int
}

// Load reads the catalog from a JSON file: a top-level array of records.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var lawyers []profile.Lawyer
	if err := json.Unmarshal(data, &lawyers); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	return FromRecords(lawyers)
}

// FromRecords builds a catalog from in-memory records (used by tests and seeds).
func FromRecords(lawyers []profile.Lawyer) (*Catalog, error) {
	byID := make(map[string]int, len(lawyers))
	for i, l := range lawyers {
		if l.ID == "" {
			return nil, fmt.Errorf("catalog record %d has no id", i)
		}
		if _, dup := byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", l.ID)
		}
		byID[l.ID] = i
	}
	return &Catalog{lawyers: lawyers, byID: byID}, nil
}

// All returns every record in stable catalog order.
func (c *Catalog) All() []profile.Lawyer {
	return c.lawyers
}

// Get returns one record by id.
func (c *Catalog) Get(id string) (profile.Lawyer, error) {
	i, ok := c.byID[id]
	if !ok {
		return profile.Lawyer{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, id)
	}
	return c.lawyers[i], nil
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.lawyers)
}
