package domain

import (
	"strings"
	"time"
)

// Card is the scheduled unit: a question/answer pair plus its
// spaced-repetition state.
type Card struct {
	ID          int64
	Question    string
	Answer      string
	Fingerprint string
	// Interval is the number of days until the next scheduled review.
	// Always >= 0.
	Interval int
	// EaseFactor is the scheduling multiplier. Never below MinEase.
	EaseFactor float64
	// LastReview is nil until the card has been reviewed once.
	LastReview *time.Time
	// NextReview is the day the card becomes due, at midnight UTC.
	NextReview time.Time
	CreatedAt  time.Time
}

// MinEase is the floor for EaseFactor across all cards.
const MinEase = 1.3

// InitialEase is the ease factor assigned at card creation.
const InitialEase = 2.5

// CardInput is the caller-supplied content for a new card.
type CardInput struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// ReviewUpdate is the partial card mutation produced by grading a
// review: the new scheduling state plus the review timestamp.
type ReviewUpdate struct {
	Quality    Quality
	Interval   int
	EaseFactor float64
	NextReview time.Time
	ReviewedAt time.Time
}

// ReviewLog records one graded review of a card.
type ReviewLog struct {
	ID         int64
	CardID     int64
	Quality    Quality
	Interval   int
	EaseFactor float64
	ReviewedAt time.Time
}

// Source is an origin of imported cards: a local directory or a git
// repository of markdown decks.
type Source struct {
	ID           int64
	Path         string
	Kind         SourceKind
	LastImported *time.Time
}

// SourceKind distinguishes local directories from git URLs.
type SourceKind string

const (
	SourceLocal SourceKind = "local"
	SourceGit   SourceKind = "git"
)

// KindOfSource classifies a source path. Anything that looks like a
// git remote is treated as git; everything else as a local directory.
func KindOfSource(path string) SourceKind {
	switch {
	case strings.HasSuffix(path, ".git"),
		strings.HasPrefix(path, "git@"),
		strings.HasPrefix(path, "https://"),
		strings.HasPrefix(path, "http://"):
		return SourceGit
	}
	return SourceLocal
}

// Day truncates t to its UTC day boundary. All due-date arithmetic
// and comparisons happen at this granularity.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Due reports whether the card is due as of the given time,
// comparing at day granularity.
func (c Card) Due(asOf time.Time) bool {
	return !Day(c.NextReview).After(Day(asOf))
}
