// Package result defines search hits returned by the retrieval channels.
package result

import "github.com/kailas-cloud/agridex/internal/domain/record"

// Hit is a single ranked record.
type Hit struct {
	rec   record.Record
	score float64
}

// New creates a search hit.
func New(rec record.Record, score float64) Hit {
	return Hit{rec: rec, score: score}
}

// Record returns the matched record.
func (h *Hit) Record() record.Record { return h.rec }

// ID returns the matched record's identifier.
func (h *Hit) ID() string { return h.rec.ID() }

// Score returns the relevance score. After fusion this is the RRF score;
// before fusion it is the channel's native score.
func (h *Hit) Score() float64 { return h.score }

// WithScore returns a copy carrying a replacement score.
func (h Hit) WithScore(score float64) Hit {
	h.score = score
	return h
}
