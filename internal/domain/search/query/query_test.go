package query

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/agridex/internal/domain"
	"github.com/kailas-cloud/agridex/internal/domain/record"
)

func mustScope(t *testing.T, owner string) Scope {
	t.Helper()
	s, err := NewScope(owner, "", "", "", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestNewScope_RequiresOwner(t *testing.T) {
	_, err := NewScope("", "", "", "", time.Time{}, time.Time{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewScope_RejectsInvertedDateRange(t *testing.T) {
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewScope("u", "", "", "", from, to)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewScope_RejectsUnknownEnums(t *testing.T) {
	if _, err := NewScope("u", "", "weeding", "", time.Time{}, time.Time{}); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, err := NewScope("u", "", "", "great", time.Time{}, time.Time{}); err == nil {
		t.Error("expected error for unknown quality")
	}
}

func TestNew_LimitClamping(t *testing.T) {
	scope := mustScope(t, "u")
	cases := []struct{ in, want int }{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{7, 7},
		{MaxLimit, MaxLimit},
		{MaxLimit + 100, MaxLimit},
	}
	for _, tc := range cases {
		q, err := New("tomato", scope, tc.in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.Limit() != tc.want {
			t.Errorf("limit %d: got %d, want %d", tc.in, q.Limit(), tc.want)
		}
	}
}

func TestNew_RequiresText(t *testing.T) {
	_, err := New("  ", mustScope(t, "u"), 10)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestScope_Matches(t *testing.T) {
	mk := func(owner, field string, cat record.Category, q record.Quality, day int) record.Record {
		r, err := record.New(record.Params{
			ID: "r", OwnerID: owner, FieldID: field,
			Date:        time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC),
			Category:    cat,
			Description: "work",
			Outcome:     record.Outcome{Quality: q},
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		return r
	}

	from := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	scope, err := NewScope("u1", "f1", record.Harvest, record.Good, from, to)
	if err != nil {
		t.Fatalf("scope: %v", err)
	}

	match := mk("u1", "f1", record.Harvest, record.Good, 15)
	if !scope.Matches(&match) {
		t.Error("expected match")
	}

	cases := map[string]record.Record{
		"wrong owner":    mk("u2", "f1", record.Harvest, record.Good, 15),
		"wrong field":    mk("u1", "f2", record.Harvest, record.Good, 15),
		"wrong category": mk("u1", "f1", record.Planting, record.Good, 15),
		"wrong quality":  mk("u1", "f1", record.Harvest, record.Poor, 15),
		"before range":   mk("u1", "f1", record.Harvest, record.Good, 5),
		"after range":    mk("u1", "f1", record.Harvest, record.Good, 25),
	}
	for name, r := range cases {
		if scope.Matches(&r) {
			t.Errorf("%s: expected no match", name)
		}
	}
}
