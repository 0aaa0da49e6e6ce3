package agridex

import (
	domknow "github.com/kailas-cloud/agridex/internal/domain/knowledge"
	"github.com/kailas-cloud/agridex/internal/domain/record"
)

func toDomainMaterials(in []Material) []record.Material {
	if len(in) == 0 {
		return nil
	}
	out := make([]record.Material, len(in))
	for i, m := range in {
		out[i] = record.Material{Name: m.Name, Amount: m.Amount, Unit: m.Unit}
	}
	return out
}

func toDomainWeather(in *Weather) *record.Weather {
	if in == nil {
		return nil
	}
	return &record.Weather{
		Condition:    in.Condition,
		TemperatureC: in.TemperatureC,
		Humidity:     in.Humidity,
	}
}

func toDomainOutcome(in Outcome) record.Outcome {
	return record.Outcome{
		Quality:       record.Quality(in.Quality),
		Effectiveness: record.Effectiveness(in.Effectiveness),
		Issues:        in.Issues,
		Improvements:  in.Improvements,
		Satisfaction:  in.Satisfaction,
	}
}

func fromDomainRecord(r record.Record) Record {
	var weather *Weather
	if w := r.Weather(); w != nil {
		weather = &Weather{
			Condition:    w.Condition,
			TemperatureC: w.TemperatureC,
			Humidity:     w.Humidity,
		}
	}

	var materials []Material
	if ms := r.Materials(); len(ms) > 0 {
		materials = make([]Material, len(ms))
		for i, m := range ms {
			materials[i] = Material{Name: m.Name, Amount: m.Amount, Unit: m.Unit}
		}
	}

	o := r.Outcome()
	return Record{
		ID:          r.ID(),
		OwnerID:     r.OwnerID(),
		FieldID:     r.FieldID(),
		Date:        r.Date(),
		Category:    string(r.Category()),
		Description: r.Description(),
		Materials:   materials,
		Weather:     weather,
		DurationMin: r.DurationMin(),
		Workers:     r.Workers(),
		Equipment:   r.Equipment(),
		Notes:       r.Notes(),
		Outcome: Outcome{
			Quality:       string(o.Quality),
			Effectiveness: string(o.Effectiveness),
			Issues:        o.Issues,
			Improvements:  o.Improvements,
			Satisfaction:  o.Satisfaction,
		},
		CreatedAt: r.CreatedAt(),
	}
}

func fromDomainKnowledge(e domknow.Entry) KnowledgeEntry {
	return KnowledgeEntry{
		ID:             e.ID(),
		FarmID:         e.FarmID(),
		OwnerID:        e.OwnerID(),
		Title:          e.Title(),
		Content:        e.Content(),
		Category:       string(e.Category()),
		RelatedRecords: e.RelatedRecords(),
		Confidence:     e.Confidence(),
		Frequency:      e.Frequency(),
		LastUsed:       e.LastUsed(),
		Tags:           e.Tags(),
		CreatedAt:      e.CreatedAt(),
	}
}
