package search

import (
	"sort"

	"github.com/kailas-cloud/agridex/internal/domain/search/result"
)

// DefaultRRFK is the default reciprocal rank fusion smoothing constant.
// Larger values flatten the influence of absolute rank.
const DefaultRRFK = 60

// fusedEntry tracks one record across both ranked lists. Ranks are
// zero-based; -1 means the record did not appear in that list.
type fusedEntry struct {
	hit         result.Hit
	score       float64
	keywordRank int
	vectorRank  int
}

// fuseRRF merges two ranked lists with Reciprocal Rank Fusion: each list
// contributes 1/(k+rank+1) per item and contributions sum for items present
// in both. Scores are rank-only; the channels' native scores are
// incomparable (BM25 vs cosine) and are deliberately not blended in.
// Ties break by keyword-list order first, then vector-list order, which
// makes the output fully deterministic.
func fuseRRF(keyword, vector []result.Hit, k int) []result.Hit {
	if k <= 0 {
		k = DefaultRRFK
	}

	entries := make(map[string]*fusedEntry, len(keyword)+len(vector))
	order := make([]string, 0, len(keyword)+len(vector))

	for rank, hit := range keyword {
		id := hit.ID()
		entries[id] = &fusedEntry{
			hit:         hit,
			score:       rrfScore(k, rank),
			keywordRank: rank,
			vectorRank:  -1,
		}
		order = append(order, id)
	}
	for rank, hit := range vector {
		recID := hit.ID()
		if e, ok := entries[recID]; ok {
			e.score += rrfScore(k, rank)
			e.vectorRank = rank
			continue
		}
		entries[recID] = &fusedEntry{
			hit:         hit,
			score:       rrfScore(k, rank),
			keywordRank: -1,
			vectorRank:  rank,
		}
		order = append(order, recID)
	}

	fused := make([]*fusedEntry, 0, len(order))
	for _, recID := range order {
		fused = append(fused, entries[recID])
	}

	sort.SliceStable(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.score != b.score {
			return a.score > b.score
		}
		return lessByPrecedence(a, b)
	})

	out := make([]result.Hit, len(fused))
	for i, e := range fused {
		out[i] = e.hit.WithScore(e.score)
	}
	return out
}

func rrfScore(k, rank int) float64 {
	return 1.0 / float64(k+rank+1)
}

// lessByPrecedence orders tied entries by keyword-list position, with any
// keyword presence outranking vector-only entries.
func lessByPrecedence(a, b *fusedEntry) bool {
	switch {
	case a.keywordRank >= 0 && b.keywordRank >= 0:
		return a.keywordRank < b.keywordRank
	case a.keywordRank >= 0:
		return true
	case b.keywordRank >= 0:
		return false
	default:
		return a.vectorRank < b.vectorRank
	}
}
