// Package session drives a single review pass over a due queue.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ciaranbyrne/revise/internal/domain"
	"github.com/ciaranbyrne/revise/internal/sm2"
)

// Phase is the controller's position in the review flow.
type Phase int

const (
	Idle           Phase = iota // no active pass
	Presenting                  // showing the question of the current card
	AwaitingRating              // answer revealed, waiting for a rating
	Complete                    // every card in the queue has been graded
)

var phaseNames = [...]string{
	Idle:           "Idle",
	Presenting:     "Presenting",
	AwaitingRating: "AwaitingRating",
	Complete:       "Complete",
}

func (p Phase) String() string {
	if p >= Idle && p <= Complete {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

var (
	// ErrNotPresenting is returned by RevealAnswer outside the
	// Presenting phase.
	ErrNotPresenting = errors.New("session: no card is being presented")
	// ErrNotAwaitingRating is returned by SubmitRating before the
	// answer has been revealed or after the pass completed.
	ErrNotAwaitingRating = errors.New("session: not awaiting a rating")
)

// Store is the slice of the card store the controller persists
// through.
type Store interface {
	ApplyReview(ctx context.Context, id int64, upd domain.ReviewUpdate) error
}

// Session walks a frozen queue snapshot, grading one card at a time.
// It is not safe for concurrent use; the caller serializes access.
type Session struct {
	store Store
	now   func() time.Time
	queue []domain.Card
	pos   int
	phase Phase
}

// New returns an idle session that persists through store.
func New(store Store) *Session {
	return &Session{store: store, now: time.Now}
}

// Start begins a pass over the given queue. The queue is copied:
// cards that become due or change externally during the pass do not
// affect it. An empty queue completes immediately.
func (s *Session) Start(cards []domain.Card) {
	s.queue = slices.Clone(cards)
	s.pos = 0
	if len(s.queue) == 0 {
		s.phase = Complete
		return
	}
	s.phase = Presenting
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Position returns the index of the current card within the queue.
func (s *Session) Position() int { return s.pos }

// Remaining returns the number of cards not yet graded, including
// the current one.
func (s *Session) Remaining() int {
	switch s.phase {
	case Presenting, AwaitingRating:
		return len(s.queue) - s.pos
	}
	return 0
}

// Current returns the card being reviewed, if any.
func (s *Session) Current() (domain.Card, bool) {
	switch s.phase {
	case Presenting, AwaitingRating:
		return s.queue[s.pos], true
	}
	return domain.Card{}, false
}

// RevealAnswer moves from Presenting to AwaitingRating. No card state
// changes.
func (s *Session) RevealAnswer() error {
	if s.phase != Presenting {
		return ErrNotPresenting
	}
	s.phase = AwaitingRating
	return nil
}

// SubmitRating grades the current card, persists the new scheduling
// state and advances to the next card (or Complete). If persistence
// fails the session stays in AwaitingRating at the same position so
// the caller can retry.
func (s *Session) SubmitRating(ctx context.Context, q domain.Quality) error {
	if s.phase != AwaitingRating {
		return ErrNotAwaitingRating
	}

	card := s.queue[s.pos]
	now := s.now()
	next, err := sm2.Next(sm2.State{Interval: card.Interval, EaseFactor: card.EaseFactor}, q, now)
	if err != nil {
		return err
	}

	upd := domain.ReviewUpdate{
		Quality:    q,
		Interval:   next.Interval,
		EaseFactor: next.EaseFactor,
		NextReview: next.NextReview,
		ReviewedAt: now,
	}
	if err := s.store.ApplyReview(ctx, card.ID, upd); err != nil {
		return fmt.Errorf("persist review of card %d: %w", card.ID, err)
	}

	if s.pos+1 < len(s.queue) {
		s.pos++
		s.phase = Presenting
	} else {
		s.phase = Complete
	}
	return nil
}

// Abort discards the pass from any phase. Ratings already persisted
// stay persisted.
func (s *Session) Abort() {
	s.queue = nil
	s.pos = 0
	s.phase = Idle
}
