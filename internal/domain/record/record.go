// Package record defines the activity record aggregate: one immutable log
// entry per unit of field work, with derived search text and tags.
package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/agridex/internal/domain/normalize"
)

// Category is the closed set of activity kinds.
type Category string

// Activity categories.
const (
	Planting    Category = "planting"
	Fertilizing Category = "fertilizing"
	PestControl Category = "pest_control"
	Cultivation Category = "cultivation"
	Harvest     Category = "harvest"
	Other       Category = "other"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case Planting, Fertilizing, PestControl, Cultivation, Harvest, Other:
		return true
	}
	return false
}

// Quality is the ordinal outcome assessment.
type Quality string

// Outcome qualities, best to worst.
const (
	Excellent Quality = "excellent"
	Good      Quality = "good"
	Fair      Quality = "fair"
	Poor      Quality = "poor"
)

// IsValid reports whether q is a known quality.
func (q Quality) IsValid() bool {
	switch q {
	case Excellent, Good, Fair, Poor:
		return true
	}
	return false
}

// IsPositive reports whether the outcome is good enough to learn from.
func (q Quality) IsPositive() bool { return q == Excellent || q == Good }

// Effectiveness grades how well the applied treatment worked.
type Effectiveness string

// Effectiveness grades.
const (
	High   Effectiveness = "high"
	Medium Effectiveness = "medium"
	Low    Effectiveness = "low"
)

// IsValid reports whether e is a known effectiveness grade.
func (e Effectiveness) IsValid() bool {
	switch e {
	case High, Medium, Low:
		return true
	}
	return false
}

// Material is a consumable used during the activity.
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
	Quality       Quality
	Effectiveness Effectiveness // optional
	Issues        []string
	Improvements  []string
	Satisfaction  int // 0 = unset, otherwise 1-5
}

// Record is the activity record aggregate (immutable value object).
// Created once at ingestion, never mutated or deleted by this engine.
type Record struct {
	id          string
	ownerID     string
	fieldID     string
	date        time.Time
	category    Category
	description string
	materials   []Material
	weather     *Weather
	durationMin int
	workers     int
	equipment   []string
	notes       string
	outcome     Outcome

	searchText string
	tags       []string

	vector         []float32
	embeddingModel string
	embeddingDims  int
	embeddedAt     time.Time

	createdAt time.Time
}

// Params carries the caller-supplied fields for New.
type Params struct {
	ID          string
	OwnerID     string
	FieldID     string
	Date        time.Time
	Category    Category
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

// New validates the params and creates a Record with derived search text
// and tag set attached. The embedding is attached later via WithEmbedding.
func New(p Params) (Record, error) {
	if p.ID == "" {
		return Record{}, fmt.Errorf("record id is required")
	}
	if p.OwnerID == "" {
		return Record{}, fmt.Errorf("owner id is required")
	}
	if p.Date.IsZero() {
		return Record{}, fmt.Errorf("date is required")
	}
	if !p.Category.IsValid() {
		return Record{}, fmt.Errorf("unknown category %q", p.Category)
	}
	if strings.TrimSpace(p.Description) == "" {
		return Record{}, fmt.Errorf("description is required")
	}
	if !p.Outcome.Quality.IsValid() {
		return Record{}, fmt.Errorf("unknown quality %q", p.Outcome.Quality)
	}
	if p.Outcome.Effectiveness != "" && !p.Outcome.Effectiveness.IsValid() {
		return Record{}, fmt.Errorf("unknown effectiveness %q", p.Outcome.Effectiveness)
	}
	if p.Outcome.Satisfaction < 0 || p.Outcome.Satisfaction > 5 {
		return Record{}, fmt.Errorf("satisfaction must be between 1 and 5")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	r := Record{
		id:          p.ID,
		ownerID:     p.OwnerID,
		fieldID:     p.FieldID,
		date:        p.Date,
		category:    p.Category,
		description: p.Description,
		materials:   p.Materials,
		weather:     p.Weather,
		durationMin: p.DurationMin,
		workers:     p.Workers,
		equipment:   p.Equipment,
		notes:       p.Notes,
		outcome:     p.Outcome,
		createdAt:   p.CreatedAt,
	}
	r.searchText = buildSearchText(&r)
	r.tags = buildTags(&r)
	return r, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	p Params, searchText string, tags []string,
	vector []float32, embeddingModel string, embeddingDims int, embeddedAt time.Time,
) Record {
	return Record{
		id:          p.ID,
		ownerID:     p.OwnerID,
		fieldID:     p.FieldID,
		date:        p.Date,
		category:    p.Category,
		description: p.Description,
		materials:   p.Materials,
		weather:     p.Weather,
		durationMin: p.DurationMin,
		workers:     p.Workers,
		equipment:   p.Equipment,
		notes:       p.Notes,
		outcome:     p.Outcome,
		searchText:  searchText,
		tags:        tags,
		vector:      vector,

		embeddingModel: embeddingModel,
		embeddingDims:  embeddingDims,
		embeddedAt:     embeddedAt,
		createdAt:      p.CreatedAt,
	}
}

// WithEmbedding returns a copy with the embedding vector and its provenance set.
func (r Record) WithEmbedding(vector []float32, model string, dims int, at time.Time) Record {
	r.vector = vector
	r.embeddingModel = model
	r.embeddingDims = dims
	r.embeddedAt = at
	return r
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// OwnerID returns the owning user identifier.
func (r *Record) OwnerID() string { return r.ownerID }

// FieldID returns the location/parcel identifier (may be empty).
func (r *Record) FieldID() string { return r.fieldID }

// Date returns the activity date (day granularity).
func (r *Record) Date() time.Time { return r.date }

// Category returns the activity category.
func (r *Record) Category() Category { return r.category }

// Description returns the free-text description.
func (r *Record) Description() string { return r.description }

// Materials returns the consumables used.
func (r *Record) Materials() []Material { return r.materials }

// Weather returns the observed conditions (nil if not recorded).
func (r *Record) Weather() *Weather { return r.weather }

// DurationMin returns the work duration in minutes.
func (r *Record) DurationMin() int { return r.durationMin }

// Workers returns the worker count.
func (r *Record) Workers() int { return r.workers }

// Equipment returns the equipment list.
func (r *Record) Equipment() []string { return r.equipment }

// Notes returns the free-text notes.
func (r *Record) Notes() string { return r.notes }

// Outcome returns the result assessment.
func (r *Record) Outcome() Outcome { return r.outcome }

// SearchText returns the derived searchable text (always non-empty).
func (r *Record) SearchText() string { return r.searchText }

// Tags returns the derived tag set (no duplicates).
func (r *Record) Tags() []string { return r.tags }

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Vector returns the embedding vector (nil when embedding was skipped).
func (r *Record) Vector() []float32 { return r.vector }

// EmbeddingModel returns the model that produced the vector.
func (r *Record) EmbeddingModel() string { return r.embeddingModel }

// EmbeddingDims returns the declared vector dimensionality.
func (r *Record) EmbeddingDims() int { return r.embeddingDims }

// EmbeddedAt returns when the vector was generated.
func (r *Record) EmbeddedAt() time.Time { return r.embeddedAt }

// CreatedAt returns the ingestion timestamp.
func (r *Record) CreatedAt() time.Time { return r.createdAt }

// buildSearchText concatenates description, notes, outcome issues and
// improvements, and material names, normalized for indexing and embedding.
func buildSearchText(r *Record) string {
	parts := make([]string, 0, 5)
	parts = append(parts, r.description)
	if r.notes != "" {
		parts = append(parts, r.notes)
	}
	parts = append(parts, r.outcome.Issues...)
	parts = append(parts, r.outcome.Improvements...)
	for _, m := range r.materials {
		if m.Name != "" {
			parts = append(parts, m.Name)
		}
	}
	text := normalize.Text(strings.Join(parts, " "))
	if text == "" {
		// Punctuation-only input normalizes away entirely; the category
		// name keeps the searchable text non-empty.
		text = normalize.Text(strings.ReplaceAll(string(r.category), "_", " "))
	}
	return text
}

// buildTags collects category, weather condition, quality, effectiveness and
// material names, dropping empties and duplicates while keeping order.
func buildTags(r *Record) []string {
	candidates := make([]string, 0, 4+len(r.materials))
	candidates = append(candidates, string(r.category))
	if r.weather != nil && r.weather.Condition != "" {
		candidates = append(candidates, r.weather.Condition)
	}
	candidates = append(candidates, string(r.outcome.Quality))
	if r.outcome.Effectiveness != "" {
		candidates = append(candidates, string(r.outcome.Effectiveness))
	}
	for _, m := range r.materials {
		if m.Name != "" {
			candidates = append(candidates, m.Name)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	tags := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		tags = append(tags, c)
	}
	return tags
}
