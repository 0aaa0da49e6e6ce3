package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/agridex/internal/db"
	dbRedis "github.com/kailas-cloud/agridex/internal/db/redis"
	"github.com/kailas-cloud/agridex/internal/domain"
	domrec "github.com/kailas-cloud/agridex/internal/domain/record"
	"github.com/kailas-cloud/agridex/internal/domain/search/query"
)

// The production driver must satisfy the consumer interface this repo wires.
var _ store = (*dbRedis.Store)(nil)

// --- Mock store ---

type mockStore struct {
	hashes map[string]map[string]string

	hsetErr   error
	sortedErr error
	sortedRes *db.SearchResult
	sortedQ   *db.SortedQuery
	created   *db.IndexDefinition
	createErr error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return m.hashes[key], nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.hashes[k]
	}
	return out, nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	keys := make([]string, 0, len(m.hashes))
	for k := range m.hashes {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mockStore) SearchSorted(_ context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
	m.sortedQ = q
	if m.sortedErr != nil {
		return nil, m.sortedErr
	}
	if m.sortedRes != nil {
		return m.sortedRes, nil
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.created = def
	return m.createErr
}

// --- Fixtures ---

func testRecord(t *testing.T, id, owner, field string, cat domrec.Category, q domrec.Quality, day int) domrec.Record {
	t.Helper()
	r, err := domrec.New(domrec.Params{
		ID: id, OwnerID: owner, FieldID: field,
		Date:        time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC),
		Category:    cat,
		Description: "watered the tomato beds thoroughly",
		Notes:       "used drip lines",
		Outcome:     domrec.Outcome{Quality: q},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return r
}

func newRepo(s store) *Repo {
	return New(s, "agridex:", IndexConfig{VectorDim: 4, M: 32, EFConstruct: 400})
}

// --- Tests ---

func TestInsertGet(t *testing.T) {
	st := newMockStore()
	repo := newRepo(st)
	rec := testRecord(t, "r1", "u1", "f1", domrec.Planting, domrec.Good, 10)

	if err := repo.Insert(context.Background(), &rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(context.Background(), "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID() != "r1" || got.OwnerID() != "u1" {
		t.Error("round trip lost identity")
	}
}

func TestInsert_PersistenceFailure(t *testing.T) {
	st := newMockStore()
	st.hsetErr = errors.New("connection reset")
	repo := newRepo(st)
	rec := testRecord(t, "r1", "u1", "", domrec.Planting, domrec.Good, 10)

	err := repo.Insert(context.Background(), &rec)
	if !errors.Is(err, domain.ErrPersistenceFailure) {
		t.Errorf("expected ErrPersistenceFailure, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := newRepo(newMockStore())
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFindSimilar_QueryShape(t *testing.T) {
	st := newMockStore()
	repo := newRepo(st)
	ref := testRecord(t, "ref", "u1", "f1", domrec.Harvest, domrec.Excellent, 15)

	if _, err := repo.FindSimilar(context.Background(), &ref, 3); err != nil {
		t.Fatalf("find similar: %v", err)
	}

	q := st.sortedQ
	if q == nil {
		t.Fatal("no sorted query issued")
	}
	if q.SortBy != fieldDate || !q.Desc {
		t.Errorf("expected date DESC ordering, got %s desc=%v", q.SortBy, q.Desc)
	}
	if q.Limit != 3 {
		t.Errorf("limit: got %d", q.Limit)
	}
	if len(q.Filter.All) != 2 || q.Filter.All[1].Values[0] != "harvest" {
		t.Errorf("owner+category must be required: %+v", q.Filter.All)
	}
	if len(q.Filter.None) != 1 || q.Filter.None[0].Values[0] != "ref" {
		t.Errorf("reference must be excluded: %+v", q.Filter.None)
	}
	if len(q.Filter.Any) < 2 {
		t.Errorf("expected quality and field alternatives: %+v", q.Filter.Any)
	}
}

func TestFindSimilar_IndexMissing(t *testing.T) {
	st := newMockStore()
	st.sortedErr = db.ErrIndexNotFound
	repo := newRepo(st)
	ref := testRecord(t, "ref", "u1", "", domrec.Harvest, domrec.Good, 15)

	_, err := repo.FindSimilar(context.Background(), &ref, 3)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestScanSimilar(t *testing.T) {
	st := newMockStore()
	repo := newRepo(st)
	ctx := context.Background()

	ref := testRecord(t, "ref", "u1", "f1", domrec.Harvest, domrec.Excellent, 15)
	match1 := testRecord(t, "m1", "u1", "f1", domrec.Harvest, domrec.Poor, 10)      // same field
	match2 := testRecord(t, "m2", "u1", "f2", domrec.Harvest, domrec.Excellent, 20) // same quality
	other := testRecord(t, "o1", "u1", "f2", domrec.Planting, domrec.Excellent, 12) // category differs

	for _, r := range []domrec.Record{ref, match1, match2, other} {
		if err := repo.Insert(ctx, &r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.ScanSimilar(ctx, &ref, 3)
	if err != nil {
		t.Fatalf("scan similar: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	// Most recent first.
	if got[0].ID() != "m2" || got[1].ID() != "m1" {
		t.Errorf("expected [m2 m1], got [%s %s]", got[0].ID(), got[1].ID())
	}
}

func TestScanSubstring(t *testing.T) {
	st := newMockStore()
	repo := newRepo(st)
	ctx := context.Background()

	r1 := testRecord(t, "r1", "u1", "f1", domrec.Planting, domrec.Good, 10)
	r2 := testRecord(t, "r2", "u2", "f1", domrec.Planting, domrec.Good, 10) // other owner
	for _, r := range []domrec.Record{r1, r2} {
		if err := repo.Insert(ctx, &r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	scope, err := query.NewScope("u1", "", "", "", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scope: %v", err)
	}

	got, err := repo.ScanSubstring(ctx, scope, "TOMATO", 10)
	if err != nil {
		t.Fatalf("scan substring: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "r1" {
		t.Errorf("expected only r1, got %v", got)
	}

	got, err = repo.ScanSubstring(ctx, scope, "cucumber", 10)
	if err != nil {
		t.Fatalf("scan substring: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestEnsureIndex(t *testing.T) {
	st := newMockStore()
	repo := newRepo(st)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	if st.created == nil {
		t.Fatal("index not created")
	}
	if st.created.Name != "agridex:records:idx" || st.created.Prefix != "agridex:records:" {
		t.Errorf("index naming: %+v", st.created)
	}

	// Existing index is not an error.
	st.createErr = db.ErrIndexExists
	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Errorf("existing index must be tolerated: %v", err)
	}
}
