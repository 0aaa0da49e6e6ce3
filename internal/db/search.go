package db

// TagClause matches a tag field against one or more values (OR within the
// clause): @field:{v1|v2}.
type TagClause struct {
	Field  string
	Values []string
}

// RangeClause restricts a numeric field to [Min, Max]; nil bounds are open.
type RangeClause struct {
	Field string
	Min   *float64
	Max   *float64
}

// Filter is a structured FT pre-filter: every All and Ranges clause must
// hold, at least one Any clause must hold, and no None clause may hold.
type Filter struct {
	All    []TagClause
	Any    []TagClause
	None   []TagClause
	Ranges []RangeClause
}

// IsEmpty reports whether the filter has no clauses.
func (f *Filter) IsEmpty() bool {
	return len(f.All) == 0 && len(f.Any) == 0 && len(f.None) == 0 && len(f.Ranges) == 0
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	Index  string
	Filter Filter
	Vector []float32
	K      int
	Return []string
}

// TextQuery is the input for BM25 full-text search over one TEXT field.
type TextQuery struct {
	Index  string
	Field  string
	Text   string
	Filter Filter
	Limit  int
	Return []string
}

// SortedQuery is a filter-only search ordered by a sortable field.
type SortedQuery struct {
	Index  string
	Filter Filter
	SortBy string
	Desc   bool
	Limit  int
	Return []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
