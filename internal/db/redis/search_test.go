package redis

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/kailas-cloud/agridex/internal/db"
)

func f64(v float64) *float64 { return &v }

func indexOf(args []string, want string) int {
	for i, a := range args {
		if a == want {
			return i
		}
	}
	return -1
}

func TestBuildKNNArgs(t *testing.T) {
	args, err := buildKNNArgs(&db.KNNQuery{
		Index:  "idx",
		Vector: []float32{0.1, 0.2},
		K:      50,
		Filter: db.Filter{All: []db.TagClause{{Field: "owner_id", Values: []string{"u1"}}}},
	})
	if err != nil {
		t.Fatalf("buildKNNArgs: %v", err)
	}

	// A candidate pool larger than the server's default page must be
	// requested explicitly, ordered nearest first.
	i := indexOf(args, "SORTBY")
	if i < 0 || args[i+1] != "__vector_score" || args[i+2] != "ASC" {
		t.Errorf("SORTBY missing or wrong: %v", args)
	}
	i = indexOf(args, "LIMIT")
	if i < 0 || args[i+1] != "0" || args[i+2] != "50" {
		t.Errorf("LIMIT must span the full candidate pool: %v", args)
	}
	if i := indexOf(args, "PARAMS"); i < 0 {
		t.Errorf("PARAMS missing: %v", args)
	}
	if args[1] != "(@owner_id:{u1})=>[KNN 50 @__vector $BLOB AS __vector_score]" {
		t.Errorf("query string: %q", args[1])
	}
}

func TestBuildKNNArgs_Validation(t *testing.T) {
	if _, err := buildKNNArgs(&db.KNNQuery{Vector: []float32{1}, K: 1}); err == nil {
		t.Error("missing index must fail")
	}
	if _, err := buildKNNArgs(&db.KNNQuery{Index: "idx", K: 1}); err == nil {
		t.Error("missing vector must fail")
	}
	if _, err := buildKNNArgs(&db.KNNQuery{Index: "idx", Vector: []float32{1}}); err == nil {
		t.Error("non-positive k must fail")
	}
}

func TestBuildFilter_Empty(t *testing.T) {
	if got := buildFilter(&db.Filter{}); got != "" {
		t.Errorf("expected empty filter string, got %q", got)
	}
}

func TestBuildFilter_AllClauses(t *testing.T) {
	f := &db.Filter{
		All: []db.TagClause{
			{Field: "owner_id", Values: []string{"user-1"}},
			{Field: "category", Values: []string{"pest_control"}},
		},
		Ranges: []db.RangeClause{
			{Field: "date", Min: f64(100), Max: f64(200)},
		},
		Any: []db.TagClause{
			{Field: "field_id", Values: []string{"f1"}},
			{Field: "tags", Values: []string{"sunny", "neem oil"}},
		},
		None: []db.TagClause{
			{Field: "id", Values: []string{"rec-1"}},
		},
	}

	got := buildFilter(f)
	want := `@owner_id:{user\-1} @category:{pest_control} @date:[100 200] ` +
		`(@field_id:{f1} | @tags:{sunny|neem\ oil}) -@id:{rec\-1}`
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestBuildFilter_OpenRange(t *testing.T) {
	f := &db.Filter{Ranges: []db.RangeClause{{Field: "date", Min: f64(50)}}}
	if got := buildFilter(f); got != "@date:[50 +inf]" {
		t.Errorf("got %q", got)
	}
	f = &db.Filter{Ranges: []db.RangeClause{{Field: "date", Max: f64(50)}}}
	if got := buildFilter(f); got != "@date:[-inf 50]" {
		t.Errorf("got %q", got)
	}
}

func TestEscapeQuery(t *testing.T) {
	got := escapeQuery(`aphids (row-3)`)
	want := `aphids \(row\-3\)`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestVectorToBytes(t *testing.T) {
	v := []float32{1.5, -2.25}
	b := []byte(vectorToBytes(v))
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	for i, want := range v {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		if got != want {
			t.Errorf("element %d: got %g, want %g", i, got, want)
		}
	}
}

func TestBuildCreateArgs(t *testing.T) {
	def := &db.IndexDefinition{
		Name:   "agridex:records:idx",
		Prefix: "agridex:records:",
		Fields: []db.IndexField{
			{Name: "owner_id", Type: db.IndexFieldTag},
			{Name: "tags", Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: "__content", Type: db.IndexFieldText},
			{Name: "date", Type: db.IndexFieldNumeric, Sortable: true},
			{Name: "__vector", Type: db.IndexFieldVector, VectorDim: 1536, VectorM: 32, VectorEFConstruct: 400},
		},
	}

	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"agridex:records:idx", "ON", "HASH", "PREFIX", "1", "agridex:records:", "SCHEMA",
		"owner_id", "TAG",
		"tags", "TAG", "SEPARATOR", ",",
		"__content", "TEXT",
		"date", "NUMERIC", "SORTABLE",
		"__vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32", "DIM", "1536", "DISTANCE_METRIC", "COSINE",
		"M", "32", "EF_CONSTRUCTION", "400",
	}
	if len(args) != len(want) {
		t.Fatalf("arg count: got %d, want %d\n%v", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	cases := []struct {
		name string
		def  db.IndexDefinition
	}{
		{"missing name", db.IndexDefinition{Prefix: "p:", Fields: []db.IndexField{{Name: "a", Type: db.IndexFieldTag}}}},
		{"missing prefix", db.IndexDefinition{Name: "i", Fields: []db.IndexField{{Name: "a", Type: db.IndexFieldTag}}}},
		{"no fields", db.IndexDefinition{Name: "i", Prefix: "p:"}},
		{"bad field type", db.IndexDefinition{Name: "i", Prefix: "p:", Fields: []db.IndexField{{Name: "a", Type: "geo"}}}},
		{"vector without dim", db.IndexDefinition{Name: "i", Prefix: "p:", Fields: []db.IndexField{{Name: "v", Type: db.IndexFieldVector}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := buildCreateArgs(&tc.def); err == nil {
				t.Error("expected error")
			}
		})
	}
}
