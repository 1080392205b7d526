// Package request defines the validated search request for the ranking engine.
package request

import "fmt"

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 8192
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Filters are the hard metadata predicates. A candidate failing any supplied
// filter is excluded outright, independently of its score. Empty fields are
// not applied.
type Filters struct {
	// Location matches as a substring of the professional's location.
	Location string
	// Gender and Education match exactly.
	Gender    string
	Education string
	// CareerTag matches by membership in the professional's career tag set.
	CareerTag string
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f == Filters{}
}

// Request is a validated ranking query.
type Request struct {
	query    string
	filters  Filters
	pageSize int
}

// New validates and normalizes search parameters.
// Defaults: pageSize=10, clamped to MaxPageSize.
func New(query string, filters Filters, pageSize int) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d bytes)", MaxQueryLength)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Request{query: query, filters: filters, pageSize: pageSize}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// Filters returns the hard metadata filters.
func (r *Request) Filters() Filters { return r.filters }

// PageSize returns the maximum number of results to return.
func (r *Request) PageSize() int { return r.pageSize }
