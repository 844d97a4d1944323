package queue

import (
	"slices"
	"testing"
	"time"

	"github.com/ciaranbyrne/revise/internal/domain"
)

var asOf = time.Date(2026, time.June, 10, 9, 30, 0, 0, time.UTC)

func cardDue(id int64, daysFromAsOf int) domain.Card {
	return domain.Card{
		ID:         id,
		NextReview: domain.Day(asOf).AddDate(0, 0, daysFromAsOf),
	}
}

func ids(cards []domain.Card) []int64 {
	out := make([]int64, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestBuildFiltersByDueDate(t *testing.T) {
	cards := []domain.Card{
		cardDue(1, -3), // overdue
		cardDue(2, 0),  // due today
		cardDue(3, 1),  // tomorrow
		cardDue(4, 30), // far future
	}

	got := Build(cards, asOf)

	if want := []int64{1, 2}; !slices.Equal(ids(got), want) {
		t.Errorf("Build returned ids %v, want %v", ids(got), want)
	}
	for _, c := range got {
		if !c.Due(asOf) {
			t.Errorf("card %d in queue but not due", c.ID)
		}
	}
}

// A card due later today counts as due even when its stored date has
// a time component ahead of asOf's.
func TestBuildComparesAtDayGranularity(t *testing.T) {
	sameDayLater := domain.Card{
		ID:         7,
		NextReview: time.Date(2026, time.June, 10, 23, 0, 0, 0, time.UTC),
	}
	got := Build([]domain.Card{sameDayLater}, asOf)
	if len(got) != 1 {
		t.Fatalf("expected same-day card to be due, queue = %v", ids(got))
	}
}

func TestBuildOrdersByDateThenID(t *testing.T) {
	cards := []domain.Card{
		cardDue(9, 0),
		cardDue(2, -1),
		cardDue(5, -4),
		cardDue(3, 0),
		cardDue(8, -1),
	}

	got := Build(cards, asOf)

	want := []int64{5, 2, 8, 3, 9}
	if !slices.Equal(ids(got), want) {
		t.Errorf("Build order = %v, want %v", ids(got), want)
	}
}

func TestBuildIsStableAcrossCalls(t *testing.T) {
	cards := []domain.Card{
		cardDue(4, 0), cardDue(1, 0), cardDue(6, -2), cardDue(2, 0),
	}

	first := ids(Build(cards, asOf))
	for i := 0; i < 5; i++ {
		if again := ids(Build(cards, asOf)); !slices.Equal(again, first) {
			t.Fatalf("call %d order = %v, first order = %v", i, again, first)
		}
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	cards := []domain.Card{cardDue(3, 0), cardDue(1, 0), cardDue(2, 5)}
	snapshot := slices.Clone(cards)

	Build(cards, asOf)

	if !slices.Equal(ids(cards), ids(snapshot)) {
		t.Errorf("input slice reordered: %v, want %v", ids(cards), ids(snapshot))
	}
}

func TestBuildEmptyAndNoneDue(t *testing.T) {
	if got := Build(nil, asOf); len(got) != 0 {
		t.Errorf("Build(nil) = %v, want empty", got)
	}
	if got := Build([]domain.Card{cardDue(1, 2)}, asOf); len(got) != 0 {
		t.Errorf("Build with nothing due = %v, want empty", ids(got))
	}
}
