package domain

import "errors"

// Sentinel errors shared across layers.
var (
	// ErrEmptyIndex signals that no vectors are indexed yet.
	ErrEmptyIndex = errors.New("empty index")
	// ErrCorruptSnapshot signals that a persisted index snapshot failed a structural check.
	ErrCorruptSnapshot = errors.New("corrupt index snapshot")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrClassifierError signals a query classifier failure or unparseable output.
	ErrClassifierError = errors.New("classifier error")
	// ErrProfileNotFound signals a missing professional record.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUnknownItemType signals an item type outside {case, content}.
	ErrUnknownItemType = errors.New("unknown item type")
)
