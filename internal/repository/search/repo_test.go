package search

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
	recrepo "github.com/kailas-cloud/agridex/internal/repository/record"
)

// The production driver must satisfy the consumer interface this repo wires.
var _ store = (*dbRedis.Store)(nil)

type mockStore struct {
	textQ   *db.TextQuery
	textRes *db.SearchResult
	textErr error

	knnQ   *db.KNNQuery
	knnRes *db.SearchResult
	knnErr error
}

func (m *mockStore) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.textQ = q
	if m.textErr != nil {
		return nil, m.textErr
	}
	if m.textRes != nil {
		return m.textRes, nil
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.knnQ = q
	if m.knnErr != nil {
		return nil, m.knnErr
	}
	if m.knnRes != nil {
		return m.knnRes, nil
	}
	return &db.SearchResult{}, nil
}

func recordFields(t *testing.T, id string) map[string]string {
	t.Helper()
	r, err := domrec.New(domrec.Params{
		ID: id, OwnerID: "user-1",
		Date:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Category:    domrec.PestControl,
		Description: "sprayed neem oil on aphid colonies",
		Outcome:     domrec.Outcome{Quality: domrec.Good},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	fields, err := recrepo.Fields(&r)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	return fields
}

func fullScope(t *testing.T) query.Scope {
	t.Helper()
	s, err := query.NewScope(
		"user-1", "field-a",
		domrec.PestControl, domrec.Good,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	return s
}

func TestSearchKeyword(t *testing.T) {
	st := &mockStore{textRes: &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{
			{Key: "agridex:records:r1", Score: 3.2, Fields: recordFields(t, "r1")},
		},
	}}
	repo := New(st, "agridex:records:idx")

	hits, err := repo.SearchKeyword(context.Background(), fullScope(t), "neem oil (aphids)", 20)
	if err != nil {
		t.Fatalf("keyword: %v", err)
	}
	if len(hits) != 1 || hits[0].ID() != "r1" || hits[0].Score() != 3.2 {
		t.Errorf("hits: %+v", hits)
	}

	q := st.textQ
	if q.Index != "agridex:records:idx" || q.Field != recrepo.ContentField {
		t.Errorf("wrong target: %s %s", q.Index, q.Field)
	}
	if q.Text != "neem oil aphids" {
		t.Errorf("query text must be normalized, got %q", q.Text)
	}
	if q.Limit != 20 {
		t.Errorf("limit: %d", q.Limit)
	}
	if len(q.Filter.All) != 4 {
		t.Errorf("expected owner, field, category and quality clauses: %+v", q.Filter.All)
	}
	if len(q.Filter.Ranges) != 1 || q.Filter.Ranges[0].Min == nil || q.Filter.Ranges[0].Max == nil {
		t.Errorf("date range lost: %+v", q.Filter.Ranges)
	}
}

func TestSearchKeyword_IndexMissing(t *testing.T) {
	st := &mockStore{textErr: db.ErrIndexNotFound}
	repo := New(st, "agridex:records:idx")

	_, err := repo.SearchKeyword(context.Background(), fullScope(t), "aphids", 10)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestSearchVector(t *testing.T) {
	st := &mockStore{knnRes: &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{
			{Key: "agridex:records:r1", Score: 0.91, Fields: recordFields(t, "r1")},
		},
	}}
	repo := New(st, "agridex:records:idx")

	scope, err := query.NewScope("user-1", "", "", "", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scope: %v", err)
	}

	hits, err := repo.SearchVector(context.Background(), scope, []float32{0.1, 0.2}, 20)
	if err != nil {
		t.Fatalf("vector: %v", err)
	}
	if len(hits) != 1 || hits[0].Score() != 0.91 {
		t.Errorf("hits: %+v", hits)
	}

	q := st.knnQ
	if q.K != 20 || len(q.Vector) != 2 {
		t.Errorf("knn params: %+v", q)
	}
	if len(q.Filter.All) != 1 || q.Filter.All[0].Field != recrepo.OwnerField {
		t.Errorf("owner clause missing: %+v", q.Filter.All)
	}
	if len(q.Filter.Ranges) != 0 {
		t.Errorf("open scope must not add range clauses: %+v", q.Filter.Ranges)
	}
}

func TestSearchVector_IndexMissing(t *testing.T) {
	st := &mockStore{knnErr: db.ErrIndexNotFound}
	repo := New(st, "agridex:records:idx")

	scope, err := query.NewScope("user-1", "", "", "", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("scope: %v", err)
	}

	_, err = repo.SearchVector(context.Background(), scope, []float32{0.1}, 10)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}
