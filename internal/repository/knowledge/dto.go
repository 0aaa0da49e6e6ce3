package knowledge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domknow "github.com/kailas-cloud/agridex/internal/domain/knowledge"
	"github.com/kailas-cloud/agridex/internal/domain/normalize"
)

// Flat hash field names. __content feeds the TEXT index field.
const (
	fieldID             = "id"
	fieldFarmID         = "farm_id"
	fieldOwnerID        = "owner_id"
	fieldTitle          = "title"
	fieldContent        = "content"
	fieldCategory       = "category"
	fieldRelatedRecords = "related_records"
	fieldConfidence     = "confidence"
	fieldFrequency      = "frequency"
	fieldLastUsed       = "last_used"
	fieldTags           = "tags"
	fieldSearchText     = "__content"
	fieldCreatedAt      = "created_at"
)

const tagSeparator = ","

// Fields flattens an entry into hash fields.
func Fields(e *domknow.Entry) (map[string]string, error) {
	related, err := json.Marshal(e.RelatedRecords())
	if err != nil {
		return nil, fmt.Errorf("marshal related records: %w", err)
	}

	m := map[string]string{
		fieldID:             e.ID(),
		fieldOwnerID:        e.OwnerID(),
		fieldTitle:          e.Title(),
		fieldContent:        e.Content(),
		fieldCategory:       string(e.Category()),
		fieldRelatedRecords: string(related),
		fieldConfidence:     strconv.FormatFloat(e.Confidence(), 'f', -1, 64),
		fieldFrequency:      strconv.Itoa(e.Frequency()),
		fieldLastUsed:       strconv.FormatInt(e.LastUsed().Unix(), 10),
		fieldSearchText:     normalize.Text(e.Title() + " " + e.Content()),
		fieldCreatedAt:      strconv.FormatInt(e.CreatedAt().Unix(), 10),
	}
	if e.FarmID() != "" {
		m[fieldFarmID] = e.FarmID()
	}
	if tags := e.Tags(); len(tags) > 0 {
		m[fieldTags] = strings.Join(tags, tagSeparator)
	}
	return m, nil
}

// Parse hydrates an entry from hash fields.
func Parse(fields map[string]string) (domknow.Entry, error) {
	if fields[fieldID] == "" {
		return domknow.Entry{}, fmt.Errorf("hash has no knowledge id")
	}

	var related []string
	if raw := fields[fieldRelatedRecords]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &related); err != nil {
			return domknow.Entry{}, fmt.Errorf("parse related records: %w", err)
		}
	}

	var tags []string
	if raw := fields[fieldTags]; raw != "" {
		tags = strings.Split(raw, tagSeparator)
	}

	confidence, _ := strconv.ParseFloat(fields[fieldConfidence], 64)
	frequency, _ := strconv.Atoi(fields[fieldFrequency])

	return domknow.Reconstruct(
		fields[fieldID],
		fields[fieldFarmID],
		fields[fieldOwnerID],
		fields[fieldTitle],
		fields[fieldContent],
		domknow.Category(fields[fieldCategory]),
		related,
		confidence,
		frequency,
		parseUnix(fields[fieldLastUsed]),
		tags,
		parseUnix(fields[fieldCreatedAt]),
	), nil
}

func parseUnix(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
