// Package sm2 implements the SM-2 spaced-repetition state transition.
//
// Next is a pure function: given a card's current scheduling state, a
// quality rating and the review time, it returns the new state. It
// performs no I/O and touches no clock, so identical inputs always
// produce identical outputs.
package sm2

import (
	"fmt"
	"math"
	"time"

	"github.com/ciaranbyrne/revise/internal/domain"
)

// State is the scheduling state the transition operates on.
type State struct {
	Interval   int     // days, >= 0
	EaseFactor float64 // >= domain.MinEase
}

// Result is the state after a graded review.
type Result struct {
	Interval   int
	EaseFactor float64
	NextReview time.Time // midnight UTC
}

// Next applies one review with the given quality rating to the state.
// The next review date is computed from the UTC day of now; no
// time-of-day component participates.
//
// Correct recalls (quality >= 3) progress the interval 0 → 1 → 6 →
// round(interval * ease). Quality 4 and 5 adjust the ease factor by
// the SM-2 formula; quality 3 leaves it untouched. Incorrect recalls
// reset the interval to 0 and drop the ease factor by 0.2. The ease
// factor never goes below domain.MinEase.
func Next(s State, q domain.Quality, now time.Time) (Result, error) {
	if !q.Valid() {
		return Result{}, fmt.Errorf("%w: got %d", domain.ErrInvalidQuality, int(q))
	}

	ease := s.EaseFactor
	interval := s.Interval

	if q.Correct() {
		if q != domain.Difficult {
			miss := float64(domain.Easy - q)
			ease += 0.1 - miss*(0.08+miss*0.02)
			ease = math.Max(ease, domain.MinEase)
		}
		switch s.Interval {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Round(float64(s.Interval) * ease))
		}
	} else {
		interval = 0
		ease = math.Max(ease-0.2, domain.MinEase)
	}

	return Result{
		Interval:   interval,
		EaseFactor: ease,
		NextReview: domain.Day(now).AddDate(0, 0, interval),
	}, nil
}
