package norah

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeStore is an in-memory DataStore with injectable failures.
type fakeStore struct {
	user     string
	code     string
	clues    []Clue
	userErr  error
	codeErr  error
	cluesErr error
	panics   bool
}

func (f *fakeStore) CurrentUser(ctx context.Context) (string, error) {
	if f.panics {
		panic("store exploded")
	}
	return f.user, f.userErr
}

func (f *fakeStore) AgentCode(ctx context.Context, userID string) (string, error) {
	return f.code, f.codeErr
}

func (f *fakeStore) RecentClues(ctx context.Context, userID string, limit int) ([]Clue, error) {
	if f.cluesErr != nil {
		return nil, f.cluesErr
	}
	if len(f.clues) > limit {
		return f.clues[:limit], nil
	}
	return f.clues, nil
}

var ctxNow = time.Date(2025, 9, 20, 9, 0, 0, 0, time.UTC)

func TestBuildContextGuest(t *testing.T) {
	ic := BuildContext(context.Background(), &fakeStore{}, ctxNow, Config{})
	if ic.AgentCode != "AG-GUEST" || ic.Week != 1 || len(ic.UserClues) != 0 || ic.Totals != (Totals{}) {
		t.Errorf("unexpected guest context: %+v", ic)
	}
}

func TestBuildContextNilStore(t *testing.T) {
	if ic := BuildContext(context.Background(), nil, ctxNow, Config{}); ic.AgentCode != "AG-GUEST" {
		t.Errorf("nil store should give guest context, got %+v", ic)
	}
}

func TestBuildContextErrors(t *testing.T) {
	boom := errors.New("unreachable")
	stores := []*fakeStore{
		{userErr: boom},
		{user: "u1", codeErr: boom},
		{user: "u1", code: "AG-1", cluesErr: boom},
	}
	for i, s := range stores {
		ic := BuildContext(context.Background(), s, ctxNow, Config{})
		if ic.AgentCode != "AG-ERROR" || ic.Week != 1 || len(ic.UserClues) != 0 {
			t.Errorf("store %d: expected AG-ERROR default, got %+v", i, ic)
		}
	}
}

func TestBuildContextPopulated(t *testing.T) {
	s := &fakeStore{user: "u1", code: "AG-007", clues: []Clue{
		{ID: "c1", CreatedAt: ctxNow.Add(-time.Hour)},
		{ID: "c2", CreatedAt: ctxNow.Add(-30 * time.Hour)},
	}}
	ic := BuildContext(context.Background(), s, ctxNow, Config{})
	if ic.AgentCode != "AG-007" {
		t.Errorf("expected AG-007, got %s", ic.AgentCode)
	}
	if ic.Totals.Found != 2 || ic.Totals.Today != 1 {
		t.Errorf("unexpected totals: %+v", ic.Totals)
	}
	// 2025-09-01 → 2025-09-20 is 19.375 days: ceil(2.77) = 3
	if ic.Week != 3 {
		t.Errorf("expected week 3, got %d", ic.Week)
	}

	// the context owns its clue slice
	s.clues[0].ID = "mutated"
	if ic.UserClues[0].ID != "c1" {
		t.Error("context should not alias the store's slice")
	}
}

func TestBuildContextClueWindow(t *testing.T) {
	clues := make([]Clue, 30)
	for i := range clues {
		clues[i] = Clue{ID: fmt.Sprint(i)}
	}
	ic := BuildContext(context.Background(), &fakeStore{user: "u", code: "AG", clues: clues}, ctxNow, Config{ClueWindow: 20})
	if len(ic.UserClues) != 20 {
		t.Errorf("expected 20 clues, got %d", len(ic.UserClues))
	}
}

func TestBuildContextDerivedCode(t *testing.T) {
	ic := BuildContext(context.Background(), &fakeStore{user: "ab-cdef-12"}, ctxNow, Config{})
	if ic.AgentCode != "AG-ABCD" {
		t.Errorf("expected derived AG-ABCD, got %s", ic.AgentCode)
	}
}

func TestWeekNumberClamp(t *testing.T) {
	cases := []struct {
		days float64
		want int
	}{
		{-10, 1},
		{0, 1},
		{3, 1},
		{7.5, 2},
		{21, 3},
		{22, 4},
		{200, 4},
	}
	for _, tc := range cases {
		now := DefaultEpoch.Add(time.Duration(tc.days * 24 * float64(time.Hour)))
		if got := WeekNumber(DefaultEpoch, now); got != tc.want {
			t.Errorf("WeekNumber(+%.1f days) = %d, want %d", tc.days, got, tc.want)
		}
	}
}
