package agridex

import "time"

// Material is a consumable used during an activity.
type Material struct {
	Name   string
	Amount float64
	Unit   string
}

// Weather captures conditions observed during the activity.
type Weather struct {
	Condition    string
	TemperatureC float64
	Humidity     float64
}

// Outcome is the result assessment attached to a record.
type Outcome struct {
	Quality       string // excellent, good, fair, poor
	Effectiveness string // optional: high, medium, low
	Issues        []string
	Improvements  []string
	Satisfaction  int // 0 = unset, otherwise 1-5
}

// Record is a stored activity record.
type Record struct {
	ID          string
	OwnerID     string
	FieldID     string
	Date        time.Time
	Category    string
	Description string
	Materials   []Material
	Weather     *Weather
	DurationMin int
	Workers     int
	Equipment   []string
	Notes       string
	Outcome     Outcome
	CreatedAt   time.Time
}

// SearchRequest is a hybrid retrieval request. OwnerID is required; all
// other scope fields narrow the candidate set.
type SearchRequest struct {
	OwnerID  string
	Query    string
	FieldID  string
	Category string
	Quality  string
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
}

// SearchHit is one scored search result.
type SearchHit struct {
	Record Record
	Score  float64
}

// SearchResponse carries the fused hits and the effective method label
// (hybrid, vector, keyword or empty).
type SearchResponse struct {
	Hits   []SearchHit
	Method string
}

// IngestInput is the activity payload for Ingest. The record id is
// assigned by the engine, never by the caller.
type IngestInput struct {
	OwnerID     string
	FarmID      string
	FieldID     string
	Date        time.Time
	Category    string
	Description string
	Materials   []Material
	Weather     *Weather
	DurationMin int
	Workers     int
	Equipment   []string
	Notes       string
	Outcome     Outcome
}

// RelatedRecord summarizes a structurally similar prior record.
type RelatedRecord struct {
	RecordID   string
	Date       time.Time
	Similarity string
}

// IngestResult is the outcome of one ingestion.
type IngestResult struct {
	RecordID        string
	Learnings       []string
	Recommendations []string
	Related         []RelatedRecord
	KnowledgeID     string
}

// KnowledgeQuery is a knowledge search request.
type KnowledgeQuery struct {
	OwnerID       string
	FarmID        string
	Category      string
	Query         string
	MinConfidence float64
	Limit         int
}

// KnowledgeEntry is an accumulated knowledge item.
type KnowledgeEntry struct {
	ID             string
	FarmID         string
	OwnerID        string
	Title          string
	Content        string
	Category       string
	RelatedRecords []string
	Confidence     float64
	Frequency      int
	LastUsed       time.Time
	Tags           []string
	CreatedAt      time.Time
}

// KnowledgeResult carries matched entries plus aggregate metadata.
type KnowledgeResult struct {
	Entries       []KnowledgeEntry
	Total         int
	AvgConfidence float64
	Categories    map[string]int
}
