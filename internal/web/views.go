package web

import (
	"time"

	"github.com/ciaranbyrne/revise/internal/domain"
	"github.com/ciaranbyrne/revise/internal/session"
)

const dateLayout = "2006-01-02"

type cardView struct {
	ID         int64   `json:"id"`
	Question   string  `json:"question"`
	Answer     string  `json:"answer,omitempty"`
	Interval   int     `json:"interval"`
	EaseFactor float64 `json:"ease_factor"`
	LastReview string  `json:"last_review,omitempty"`
	NextReview string  `json:"next_review"`
	CreatedAt  string  `json:"created_at"`
}

func viewOfCard(c domain.Card, withAnswer bool) cardView {
	v := cardView{
		ID:         c.ID,
		Question:   c.Question,
		Interval:   c.Interval,
		EaseFactor: c.EaseFactor,
		NextReview: c.NextReview.Format(dateLayout),
		CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withAnswer {
		v.Answer = c.Answer
	}
	if c.LastReview != nil {
		v.LastReview = c.LastReview.UTC().Format(time.RFC3339)
	}
	return v
}

type reviewView struct {
	Quality    int     `json:"quality"`
	Interval   int     `json:"interval"`
	EaseFactor float64 `json:"ease_factor"`
	ReviewedAt string  `json:"reviewed_at"`
}

type sourceView struct {
	ID           int64  `json:"id"`
	Path         string `json:"path"`
	Kind         string `json:"kind"`
	LastImported string `json:"last_imported,omitempty"`
}

type sessionView struct {
	Phase     string    `json:"phase"`
	Position  int       `json:"position"`
	Remaining int       `json:"remaining"`
	Card      *cardView `json:"card,omitempty"`
}

// sessionViewLocked snapshots the session for a response. The answer
// is included only once it has been revealed. Caller holds s.mu.
func (s *Server) sessionViewLocked() sessionView {
	v := sessionView{
		Phase:     s.session.Phase().String(),
		Position:  s.session.Position(),
		Remaining: s.session.Remaining(),
	}
	if card, ok := s.session.Current(); ok {
		cv := viewOfCard(card, s.session.Phase() == session.AwaitingRating)
		v.Card = &cv
	}
	return v
}
