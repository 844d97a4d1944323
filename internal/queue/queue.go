// Package queue builds the ordered review queue from a snapshot of
// cards.
package queue

import (
	"cmp"
	"slices"
	"time"

	"github.com/ciaranbyrne/revise/internal/domain"
)

// Build returns every card due as of asOf (day-granularity compare),
// sorted ascending by next review date with card id as the
// tie-break. The input slice is not mutated; repeated calls over an
// unchanged snapshot return the same order.
func Build(cards []domain.Card, asOf time.Time) []domain.Card {
	var due []domain.Card
	for _, c := range cards {
		if c.Due(asOf) {
			due = append(due, c)
		}
	}
	slices.SortFunc(due, func(a, b domain.Card) int {
		if n := domain.Day(a.NextReview).Compare(domain.Day(b.NextReview)); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return due
}
