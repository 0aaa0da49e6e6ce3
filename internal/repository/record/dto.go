package record

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	domrec "github.com/kailas-cloud/agridex/internal/domain/record"
)

// Flat hash field names. __content and __vector feed the TEXT and VECTOR
// index fields; the rest are TAG/NUMERIC filters or stored payload.
const (
	fieldID             = "id"
	fieldOwnerID        = "owner_id"
	fieldFieldID        = "field_id"
	fieldDate           = "date"
	fieldCategory       = "category"
	fieldDescription    = "description"
	fieldMaterials      = "materials"
	fieldWeather        = "weather"
	fieldDurationMin    = "duration_min"
	fieldWorkers        = "workers"
	fieldEquipment      = "equipment"
	fieldNotes          = "notes"
	fieldQuality        = "quality"
	fieldEffectiveness  = "effectiveness"
	fieldIssues         = "issues"
	fieldImprovements   = "improvements"
	fieldSatisfaction   = "satisfaction"
	fieldContent        = "__content"
	fieldTags           = "tags"
	fieldVector         = "__vector"
	fieldEmbeddingModel = "embedding_model"
	fieldEmbeddingDims  = "embedding_dims"
	fieldEmbeddedAt     = "embedded_at"
	fieldCreatedAt      = "created_at"
)

// Index field names shared with the search repository.
const (
	OwnerField    = fieldOwnerID
	FieldIDField  = fieldFieldID
	CategoryField = fieldCategory
	QualityField  = fieldQuality
	DateField     = fieldDate
	ContentField  = fieldContent
)

// tagSeparator joins the tag set into one TAG field.
const tagSeparator = ","

type materialDTO struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

type weatherDTO struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c,omitempty"`
	Humidity     float64 `json:"humidity,omitempty"`
}

// Fields flattens a record into hash fields. Empty optional values are
// omitted so HGETALL round-trips stay compact.
func Fields(r *domrec.Record) (map[string]string, error) {
	m := map[string]string{
		fieldID:          r.ID(),
		fieldOwnerID:     r.OwnerID(),
		fieldDate:        strconv.FormatInt(r.Date().Unix(), 10),
		fieldCategory:    string(r.Category()),
		fieldDescription: r.Description(),
		fieldQuality:     string(r.Outcome().Quality),
		fieldContent:     r.SearchText(),
		fieldTags:        strings.Join(r.Tags(), tagSeparator),
		fieldCreatedAt:   strconv.FormatInt(r.CreatedAt().Unix(), 10),
	}

	if r.FieldID() != "" {
		m[fieldFieldID] = r.FieldID()
	}
	if r.Notes() != "" {
		m[fieldNotes] = r.Notes()
	}
	if r.DurationMin() > 0 {
		m[fieldDurationMin] = strconv.Itoa(r.DurationMin())
	}
	if r.Workers() > 0 {
		m[fieldWorkers] = strconv.Itoa(r.Workers())
	}

	out := r.Outcome()
	if out.Effectiveness != "" {
		m[fieldEffectiveness] = string(out.Effectiveness)
	}
	if out.Satisfaction > 0 {
		m[fieldSatisfaction] = strconv.Itoa(out.Satisfaction)
	}

	if err := putJSON(m, fieldMaterials, toMaterialDTOs(r.Materials())); err != nil {
		return nil, err
	}
	if w := r.Weather(); w != nil {
		if err := putJSON(m, fieldWeather, weatherDTO{w.Condition, w.TemperatureC, w.Humidity}); err != nil {
			return nil, err
		}
	}
	if err := putJSON(m, fieldEquipment, r.Equipment()); err != nil {
		return nil, err
	}
	if err := putJSON(m, fieldIssues, out.Issues); err != nil {
		return nil, err
	}
	if err := putJSON(m, fieldImprovements, out.Improvements); err != nil {
		return nil, err
	}

	if v := r.Vector(); len(v) > 0 {
		m[fieldVector] = vectorToBytes(v)
		m[fieldEmbeddingModel] = r.EmbeddingModel()
		m[fieldEmbeddingDims] = strconv.Itoa(r.EmbeddingDims())
		m[fieldEmbeddedAt] = strconv.FormatInt(r.EmbeddedAt().Unix(), 10)
	}

	return m, nil
}

// Parse hydrates a record from hash fields.
func Parse(fields map[string]string) (domrec.Record, error) {
	if fields[fieldID] == "" {
		return domrec.Record{}, fmt.Errorf("hash has no record id")
	}

	p := domrec.Params{
		ID:          fields[fieldID],
		OwnerID:     fields[fieldOwnerID],
		FieldID:     fields[fieldFieldID],
		Date:        parseUnix(fields[fieldDate]),
		Category:    domrec.Category(fields[fieldCategory]),
		Description: fields[fieldDescription],
		Notes:       fields[fieldNotes],
		DurationMin: parseInt(fields[fieldDurationMin]),
		Workers:     parseInt(fields[fieldWorkers]),
		CreatedAt:   parseUnix(fields[fieldCreatedAt]),
		Outcome: domrec.Outcome{
			Quality:       domrec.Quality(fields[fieldQuality]),
			Effectiveness: domrec.Effectiveness(fields[fieldEffectiveness]),
			Satisfaction:  parseInt(fields[fieldSatisfaction]),
		},
	}

	if raw := fields[fieldMaterials]; raw != "" {
		var dtos []materialDTO
		if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
			return domrec.Record{}, fmt.Errorf("parse materials: %w", err)
		}
		p.Materials = make([]domrec.Material, len(dtos))
		for i, d := range dtos {
			p.Materials[i] = domrec.Material{Name: d.Name, Amount: d.Amount, Unit: d.Unit}
		}
	}
	if raw := fields[fieldWeather]; raw != "" {
		var d weatherDTO
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return domrec.Record{}, fmt.Errorf("parse weather: %w", err)
		}
		p.Weather = &domrec.Weather{Condition: d.Condition, TemperatureC: d.TemperatureC, Humidity: d.Humidity}
	}
	if err := getJSON(fields, fieldEquipment, &p.Equipment); err != nil {
		return domrec.Record{}, err
	}
	if err := getJSON(fields, fieldIssues, &p.Outcome.Issues); err != nil {
		return domrec.Record{}, err
	}
	if err := getJSON(fields, fieldImprovements, &p.Outcome.Improvements); err != nil {
		return domrec.Record{}, err
	}

	var tags []string
	if raw := fields[fieldTags]; raw != "" {
		tags = strings.Split(raw, tagSeparator)
	}

	return domrec.Reconstruct(
		p,
		fields[fieldContent],
		tags,
		bytesToVector(fields[fieldVector]),
		fields[fieldEmbeddingModel],
		parseInt(fields[fieldEmbeddingDims]),
		parseUnix(fields[fieldEmbeddedAt]),
	), nil
}

func toMaterialDTOs(ms []domrec.Material) []materialDTO {
	if len(ms) == 0 {
		return nil
	}
	dtos := make([]materialDTO, len(ms))
	for i, m := range ms {
		dtos[i] = materialDTO{Name: m.Name, Amount: m.Amount, Unit: m.Unit}
	}
	return dtos
}

func putJSON(m map[string]string, key string, v any) error {
	switch val := v.(type) {
	case []materialDTO:
		if len(val) == 0 {
			return nil
		}
	case []string:
		if len(val) == 0 {
			return nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	m[key] = string(data)
	return nil
}

func getJSON(fields map[string]string, key string, dst *[]string) error {
	raw := fields[key]
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return nil
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
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

// vectorToBytes serializes []float32 as little-endian FLOAT32 binary.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
