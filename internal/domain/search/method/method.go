// Package method labels which retrieval channel produced a result set.
package method

// Method is the effective search method of a response.
type Method string

// Search method labels.
const (
	// Hybrid means both keyword and vector channels contributed.
	Hybrid Method = "hybrid"
	// Vector means only the vector channel returned candidates.
	Vector Method = "vector"
	// Keyword means only the keyword channel returned candidates.
	Keyword Method = "keyword"
	// Empty means neither channel returned anything.
	Empty Method = "empty"
)

// Select derives the label from the emptiness of the two input lists.
func Select(keywordCount, vectorCount int) Method {
	switch {
	case keywordCount > 0 && vectorCount > 0:
		return Hybrid
	case vectorCount > 0:
		return Vector
	case keywordCount > 0:
		return Keyword
	default:
		return Empty
	}
}
