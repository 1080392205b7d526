package domain

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// TruncatingEmbedder is a domain decorator that normalizes newlines and caps
// embed input length so a long case summary cannot exceed provider token limits.
type TruncatingEmbedder struct {
	inner    Embedder
	maxChars int
}

// NewTruncatingEmbedder creates a decorator that truncates input to maxChars.
func NewTruncatingEmbedder(inner Embedder, maxChars int) *TruncatingEmbedder {
	return &TruncatingEmbedder{inner: inner, maxChars: maxChars}
}

// Embed normalizes and truncates the text, then delegates to the inner embedder.
func (e *TruncatingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	text = strings.ReplaceAll(text, "\n", " ")
	if e.maxChars > 0 && len(text) > e.maxChars {
		cut := e.maxChars
		// Back off to a rune boundary so the cut never splits a multi-byte character.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("truncating embed: %w", err)
	}
	return result, nil
}
