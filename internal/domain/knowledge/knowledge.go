// Package knowledge defines the personal knowledge entry aggregate: durable,
// confidence-scored lessons derived from high-quality activity records.
package knowledge

import (
	"fmt"
	"time"
)

// Category classifies what kind of lesson an entry captures.
type Category string

// Knowledge categories.
const (
	Experience Category = "experience"
	Technique  Category = "technique"
	Timing     Category = "timing"
	Resource   Category = "resource"
	Issue      Category = "issue"
)

// IsValid reports whether c is a known knowledge category.
func (c Category) IsValid() bool {
	switch c {
	case Experience, Technique, Timing, Resource, Issue:
		return true
	}
	return false
}

// MaxTags caps how many tags an entry carries.
const MaxTags = 5

// Entry is the personal knowledge aggregate (immutable value object;
// usage counters are updated through storage, not through this type).
type Entry struct {
	id             string
	farmID         string
	ownerID        string
	title          string
	content        string
	category       Category
	relatedRecords []string
	confidence     float64
	frequency      int
	lastUsed       time.Time
	tags           []string
	createdAt      time.Time
}

// New validates and creates an Entry. Confidence must lie in [0,1] and at
// least one related record id is required. Tags beyond MaxTags are dropped.
func New(
	id, farmID, ownerID, title, content string,
	category Category, relatedRecords []string,
	confidence float64, tags []string, createdAt time.Time,
) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("knowledge id is required")
	}
	if ownerID == "" {
		return Entry{}, fmt.Errorf("owner id is required")
	}
	if title == "" {
		return Entry{}, fmt.Errorf("title is required")
	}
	if content == "" {
		return Entry{}, fmt.Errorf("content is required")
	}
	if !category.IsValid() {
		return Entry{}, fmt.Errorf("unknown knowledge category %q", category)
	}
	if len(relatedRecords) == 0 {
		return Entry{}, fmt.Errorf("at least one related record is required")
	}
	if confidence < 0 || confidence > 1 {
		return Entry{}, fmt.Errorf("confidence must be within [0,1], got %g", confidence)
	}
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return Entry{
		id:             id,
		farmID:         farmID,
		ownerID:        ownerID,
		title:          title,
		content:        content,
		category:       category,
		relatedRecords: relatedRecords,
		confidence:     confidence,
		frequency:      1,
		lastUsed:       createdAt,
		tags:           tags,
		createdAt:      createdAt,
	}, nil
}

// Reconstruct creates an Entry without validation (storage hydration).
func Reconstruct(
	id, farmID, ownerID, title, content string,
	category Category, relatedRecords []string,
	confidence float64, frequency int, lastUsed time.Time,
	tags []string, createdAt time.Time,
) Entry {
	return Entry{
		id:             id,
		farmID:         farmID,
		ownerID:        ownerID,
		title:          title,
		content:        content,
		category:       category,
		relatedRecords: relatedRecords,
		confidence:     confidence,
		frequency:      frequency,
		lastUsed:       lastUsed,
		tags:           tags,
		createdAt:      createdAt,
	}
}

// ID returns the entry identifier.
func (e *Entry) ID() string { return e.id }

// FarmID returns the farm/group identifier.
func (e *Entry) FarmID() string { return e.farmID }

// OwnerID returns the owning user identifier.
func (e *Entry) OwnerID() string { return e.ownerID }

// Title returns the entry title.
func (e *Entry) Title() string { return e.title }

// Content returns the entry text.
func (e *Entry) Content() string { return e.content }

// Category returns the knowledge category.
func (e *Entry) Category() Category { return e.category }

// RelatedRecords returns the source record ids (never empty).
func (e *Entry) RelatedRecords() []string { return e.relatedRecords }

// Confidence returns the confidence score in [0,1].
func (e *Entry) Confidence() float64 { return e.confidence }

// Frequency returns the usage counter (starts at 1).
func (e *Entry) Frequency() int { return e.frequency }

// LastUsed returns when the entry was last surfaced.
func (e *Entry) LastUsed() time.Time { return e.lastUsed }

// Tags returns the tag set (at most MaxTags).
func (e *Entry) Tags() []string { return e.tags }

// CreatedAt returns the creation timestamp.
func (e *Entry) CreatedAt() time.Time { return e.createdAt }
