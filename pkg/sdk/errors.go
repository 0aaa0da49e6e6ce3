package agridex

import "github.com/kailas-cloud/agridex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrRecordNotFound      = domain.ErrRecordNotFound
	ErrKnowledgeNotFound   = domain.ErrKnowledgeNotFound
	ErrIndexUnavailable    = domain.ErrIndexUnavailable
	ErrUpstreamUnavailable = domain.ErrUpstreamUnavailable
	ErrPersistenceFailure  = domain.ErrPersistenceFailure
	ErrInvalidInput        = domain.ErrInvalidInput
)
