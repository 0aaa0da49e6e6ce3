package record

import (
	"testing"
	"time"

	domrec "github.com/kailas-cloud/agridex/internal/domain/record"
)

func TestFieldsParse_RoundTrip(t *testing.T) {
	r, err := domrec.New(domrec.Params{
		ID: "rec-1", OwnerID: "user-1", FieldID: "field-a",
		Date:        time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		Category:    domrec.Fertilizing,
		Description: "applied compost to rows 1 to 4",
		Materials:   []domrec.Material{{Name: "compost", Amount: 40, Unit: "kg"}},
		Weather:     &domrec.Weather{Condition: "cloudy", TemperatureC: 18, Humidity: 70},
		DurationMin: 90,
		Workers:     2,
		Equipment:   []string{"wheelbarrow"},
		Notes:       "soil was dry",
		Outcome: domrec.Outcome{
			Quality:       domrec.Good,
			Effectiveness: domrec.Medium,
			Issues:        []string{"ran short on row 4"},
			Satisfaction:  4,
		},
		CreatedAt: time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	r = r.WithEmbedding([]float32{0.5, -1.25, 3}, "text-embedding-004", 3,
		time.Date(2026, 5, 12, 9, 31, 0, 0, time.UTC))

	fields, err := Fields(&r)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	got, err := Parse(fields)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got.ID() != r.ID() || got.OwnerID() != r.OwnerID() || got.FieldID() != r.FieldID() {
		t.Error("identity fields lost")
	}
	if !got.Date().Equal(r.Date()) || !got.CreatedAt().Equal(r.CreatedAt()) {
		t.Error("timestamps lost")
	}
	if got.Category() != r.Category() || got.Outcome().Quality != r.Outcome().Quality {
		t.Error("enums lost")
	}
	if len(got.Materials()) != 1 || got.Materials()[0] != r.Materials()[0] {
		t.Errorf("materials lost: %+v", got.Materials())
	}
	if got.Weather() == nil || *got.Weather() != *r.Weather() {
		t.Error("weather lost")
	}
	if got.SearchText() != r.SearchText() {
		t.Errorf("search text lost: %q != %q", got.SearchText(), r.SearchText())
	}
	if len(got.Tags()) != len(r.Tags()) {
		t.Errorf("tags lost: %v != %v", got.Tags(), r.Tags())
	}
	if len(got.Vector()) != 3 || got.Vector()[1] != -1.25 {
		t.Errorf("vector lost: %v", got.Vector())
	}
	if got.EmbeddingModel() != "text-embedding-004" || got.EmbeddingDims() != 3 {
		t.Error("embedding provenance lost")
	}
	if len(got.Outcome().Issues) != 1 || got.Outcome().Issues[0] != "ran short on row 4" {
		t.Error("issues lost")
	}
}

func TestFields_OmitsEmptyOptionals(t *testing.T) {
	r, err := domrec.New(domrec.Params{
		ID: "rec-2", OwnerID: "user-1",
		Date:        time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		Category:    domrec.Other,
		Description: "checked irrigation lines",
		Outcome:     domrec.Outcome{Quality: domrec.Fair},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	fields, err := Fields(&r)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	for _, absent := range []string{
		fieldFieldID, fieldMaterials, fieldWeather, fieldEquipment,
		fieldIssues, fieldImprovements, fieldVector, fieldEmbeddingModel,
	} {
		if _, ok := fields[absent]; ok {
			t.Errorf("field %s must be omitted when empty", absent)
		}
	}
}

func TestParse_MissingID(t *testing.T) {
	if _, err := Parse(map[string]string{"owner_id": "u"}); err == nil {
		t.Error("expected error for hash without id")
	}
}
