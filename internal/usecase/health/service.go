package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search still works in this state,
	// possibly with reduced quality.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	redis     RedisPinger
	embedding EmbeddingChecker
	index     IndexSizer
}

// New creates a Service. redis and embedding can be nil.
func New(redis RedisPinger, embedding EmbeddingChecker, index IndexSizer) *Service {
	return &Service{redis: redis, embedding: embedding, index: index}
}

// Check runs health checks against all components. An empty index is reported
// as a failing check: searches return no results until a rebuild completes.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			checks["redis"] = CheckError
		} else {
			checks["redis"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.index.Len() == 0 {
		checks["index"] = CheckError
	} else {
		checks["index"] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
