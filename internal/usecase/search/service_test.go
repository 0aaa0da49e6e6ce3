package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/agridex/internal/domain"
	"github.com/kailas-cloud/agridex/internal/domain/record"
	"github.com/kailas-cloud/agridex/internal/domain/search/method"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
	"github.com/kailas-cloud/agridex/internal/domain/search/result"
)

// --- Mocks ---

type mockRecords struct {
	getRec record.Record
	getErr error

	similar     []record.Record
	similarErr  error
	scanSimilar []record.Record
	scanCalled  bool

	substring       []record.Record
	substringErr    error
	substringCalled bool
}

func (m *mockRecords) Get(_ context.Context, _ string) (record.Record, error) {
	return m.getRec, m.getErr
}

func (m *mockRecords) FindSimilar(_ context.Context, _ *record.Record, _ int) ([]record.Record, error) {
	return m.similar, m.similarErr
}

func (m *mockRecords) ScanSimilar(_ context.Context, _ *record.Record, _ int) ([]record.Record, error) {
	m.scanCalled = true
	return m.scanSimilar, nil
}

func (m *mockRecords) ScanSubstring(_ context.Context, _ query.Scope, _ string, _ int) ([]record.Record, error) {
	m.substringCalled = true
	return m.substring, m.substringErr
}

type mockIndex struct {
	kwHits  []result.Hit
	kwErr   error
	kwLimit int

	vecHits []result.Hit
	vecErr  error
	vecK    int
}

func (m *mockIndex) SearchKeyword(_ context.Context, _ query.Scope, _ string, limit int) ([]result.Hit, error) {
	m.kwLimit = limit
	return m.kwHits, m.kwErr
}

func (m *mockIndex) SearchVector(_ context.Context, _ query.Scope, _ []float32, k int) ([]result.Hit, error) {
	m.vecK = k
	return m.vecHits, m.vecErr
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- Fixtures ---

func testConfig() Config {
	return Config{
		RRFK:                60,
		OverfetchFactor:     2,
		CandidateMultiplier: 5,
		CandidateCeiling:    1000,
		KeywordTimeout:      time.Second,
		SimilarLimit:        3,
	}
}

func testQuery(t *testing.T, limit int) query.Query {
	t.Helper()
	scope, err := query.NewScope("user-1", "", "", "", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	q, err := query.New("neem oil against aphids", scope, limit)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	return q
}

func ownedRecord(t *testing.T, id, owner string) record.Record {
	t.Helper()
	r, err := record.New(record.Params{
		ID: id, OwnerID: owner,
		Date:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Category:    record.PestControl,
		Description: "sprayed neem oil",
		Outcome:     record.Outcome{Quality: record.Good},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return r
}

// --- Search ---

func TestSearch_Hybrid(t *testing.T) {
	idx := &mockIndex{
		kwHits:  []result.Hit{mkHit(t, "r1", 5), mkHit(t, "r2", 4)},
		vecHits: []result.Hit{mkHit(t, "r2", 0.9), mkHit(t, "r3", 0.8)},
	}
	svc := New(&mockRecords{}, idx, &mockEmbedder{vec: []float32{0.1}}, testConfig())

	res, err := svc.Search(context.Background(), testQuery(t, 10))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Method != method.Hybrid {
		t.Errorf("method: got %s", res.Method)
	}
	if got := ids(res.Hits); got[0] != "r2" {
		t.Errorf("r2 must lead after fusion, got %v", got)
	}
	if idx.kwLimit != 20 {
		t.Errorf("keyword overfetch: got %d, want 20", idx.kwLimit)
	}
	if idx.vecK != 50 {
		t.Errorf("candidate pool: got %d, want 50", idx.vecK)
	}
}

func TestSearch_CandidateCeiling(t *testing.T) {
	idx := &mockIndex{}
	cfg := testConfig()
	cfg.CandidateCeiling = 30
	svc := New(&mockRecords{}, idx, &mockEmbedder{vec: []float32{0.1}}, cfg)

	if _, err := svc.Search(context.Background(), testQuery(t, 10)); err != nil {
		t.Fatalf("search: %v", err)
	}
	if idx.vecK != 30 {
		t.Errorf("candidate pool must be capped: got %d", idx.vecK)
	}
}

func TestSearch_VectorDegradesOnEmbeddingFailure(t *testing.T) {
	idx := &mockIndex{kwHits: []result.Hit{mkHit(t, "r1", 5)}}
	emb := &mockEmbedder{err: domain.ErrUpstreamUnavailable}
	svc := New(&mockRecords{}, idx, emb, testConfig())

	res, err := svc.Search(context.Background(), testQuery(t, 10))
	if err != nil {
		t.Fatalf("vector failure must not fail the search: %v", err)
	}
	if res.Method != method.Keyword {
		t.Errorf("method: got %s, want keyword", res.Method)
	}
	if len(res.Hits) != 1 {
		t.Errorf("keyword results lost: %d", len(res.Hits))
	}
}

func TestSearch_VectorDegradesOnIndexError(t *testing.T) {
	idx := &mockIndex{
		kwHits: []result.Hit{mkHit(t, "r1", 5)},
		vecErr: domain.ErrIndexUnavailable,
	}
	svc := New(&mockRecords{}, idx, &mockEmbedder{vec: []float32{0.1}}, testConfig())

	res, err := svc.Search(context.Background(), testQuery(t, 10))
	if err != nil {
		t.Fatalf("vector failure must not fail the search: %v", err)
	}
	if res.Method != method.Keyword {
		t.Errorf("method: got %s", res.Method)
	}
}

func TestSearch_NoEmbedderDisablesVector(t *testing.T) {
	idx := &mockIndex{kwHits: []result.Hit{mkHit(t, "r1", 5)}}
	svc := New(&mockRecords{}, idx, nil, testConfig())

	res, err := svc.Search(context.Background(), testQuery(t, 10))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Method != method.Keyword {
		t.Errorf("method: got %s", res.Method)
	}
}

func TestSearch_KeywordFallsBackOnMissingIndex(t *testing.T) {
	records := &mockRecords{substring: []record.Record{ownedRecord(t, "r9", "user-1")}}
	idx := &mockIndex{kwErr: domain.ErrIndexUnavailable}
	svc := New(records, idx, nil, testConfig())

	res, err := svc.Search(context.Background(), testQuery(t, 10))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !records.substringCalled {
		t.Fatal("substring fallback not invoked")
	}
	if len(res.Hits) != 1 || res.Hits[0].ID() != "r9" {
		t.Errorf("fallback hits lost: %v", ids(res.Hits))
	}
	if res.Method != method.Keyword {
		t.Errorf("method: got %s", res.Method)
	}
}

func TestSearch_KeywordTimeoutDegrades(t *testing.T) {
	idx := &mockIndex{
		kwErr:   context.DeadlineExceeded,
		vecHits: []result.Hit{mkHit(t, "r1", 0.9)},
	}
	svc := New(&mockRecords{}, idx, &mockEmbedder{vec: []float32{0.1}}, testConfig())

	res, err := svc.Search(context.Background(), testQuery(t, 10))
	if err != nil {
		t.Fatalf("keyword timeout must degrade, not fail: %v", err)
	}
	if res.Method != method.Vector {
		t.Errorf("method: got %s, want vector", res.Method)
	}
}

func TestSearch_KeywordHardFailure(t *testing.T) {
	idx := &mockIndex{kwErr: errors.New("connection reset")}
	svc := New(&mockRecords{}, idx, nil, testConfig())

	if _, err := svc.Search(context.Background(), testQuery(t, 10)); err == nil {
		t.Fatal("non-timeout keyword error must fail the search")
	}
}

func TestSearch_BothEmpty(t *testing.T) {
	svc := New(&mockRecords{}, &mockIndex{}, &mockEmbedder{vec: []float32{0.1}}, testConfig())

	res, err := svc.Search(context.Background(), testQuery(t, 10))
	if err != nil {
		t.Fatalf("no matches is a valid outcome: %v", err)
	}
	if res.Method != method.Empty || len(res.Hits) != 0 {
		t.Errorf("expected empty result, got %s with %d hits", res.Method, len(res.Hits))
	}
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	idx := &mockIndex{kwHits: []result.Hit{
		mkHit(t, "r1", 5), mkHit(t, "r2", 4), mkHit(t, "r3", 3), mkHit(t, "r4", 2),
	}}
	svc := New(&mockRecords{}, idx, nil, testConfig())

	res, err := svc.Search(context.Background(), testQuery(t, 3))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Hits) != 3 {
		t.Errorf("expected 3 hits, got %d", len(res.Hits))
	}
}

// --- FindSimilar ---

func TestFindSimilar(t *testing.T) {
	records := &mockRecords{
		getRec:  ownedRecord(t, "ref", "user-1"),
		similar: []record.Record{ownedRecord(t, "m1", "user-1")},
	}
	svc := New(records, &mockIndex{}, nil, testConfig())

	got, err := svc.FindSimilar(context.Background(), "user-1", "ref", 0)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "m1" {
		t.Errorf("results: %v", got)
	}
}

func TestFindSimilar_NotFound(t *testing.T) {
	records := &mockRecords{getErr: domain.ErrRecordNotFound}
	svc := New(records, &mockIndex{}, nil, testConfig())

	_, err := svc.FindSimilar(context.Background(), "user-1", "missing", 3)
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFindSimilar_ForeignOwner(t *testing.T) {
	records := &mockRecords{getRec: ownedRecord(t, "ref", "someone-else")}
	svc := New(records, &mockIndex{}, nil, testConfig())

	_, err := svc.FindSimilar(context.Background(), "user-1", "ref", 3)
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("foreign records must look absent, got %v", err)
	}
}

func TestFindSimilar_ScanFallback(t *testing.T) {
	records := &mockRecords{
		getRec:      ownedRecord(t, "ref", "user-1"),
		similarErr:  domain.ErrIndexUnavailable,
		scanSimilar: []record.Record{ownedRecord(t, "m1", "user-1")},
	}
	svc := New(records, &mockIndex{}, nil, testConfig())

	got, err := svc.FindSimilar(context.Background(), "user-1", "ref", 3)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if !records.scanCalled {
		t.Fatal("scan fallback not invoked")
	}
	if len(got) != 1 {
		t.Errorf("fallback results lost: %d", len(got))
	}
}
