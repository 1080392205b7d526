package analysis

import (
	"context"

	"github.com/lawnald/counselrank/internal/domain"
)

// Classifier is the external classification capability.
type Classifier interface {
	Classify(ctx context.Context, query string) (domain.QueryAnalysis, error)
}
