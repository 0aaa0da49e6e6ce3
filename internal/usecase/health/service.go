// Package health aggregates component checks for the /health endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; search falls back to scan paths.
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

// Service coordinates health checks. A missing record index is reported as
// degraded rather than down: retrieval still works through fallback scans.
type Service struct {
	store       StorePinger
	indexes     IndexChecker
	recordIndex string
	embedding   EmbeddingChecker
}

// New creates a Service. indexes and embedding can be nil.
func New(store StorePinger, indexes IndexChecker, recordIndex string, embedding EmbeddingChecker) *Service {
	return &Service{store: store, indexes: indexes, recordIndex: recordIndex, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.store.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.indexes != nil && s.recordIndex != "" {
		if ok, err := s.indexes.IndexExists(ctx, s.recordIndex); err != nil || !ok {
			checks["record_index"] = CheckError
		} else {
			checks["record_index"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
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
