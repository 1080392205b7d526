package health

import "context"

// RedisPinger checks the presence/cache store availability.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexSizer reports the live vector index size.
type IndexSizer interface {
	Len() int
}
