package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ciaranbyrne/revise/internal/domain"
)

var storeNow = time.Date(2026, time.June, 10, 14, 20, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "revise.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.now = func() time.Time { return storeNow }
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateCardDefaults(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.CreateCard(ctx, domain.CardInput{Question: "q1", Answer: "a1"})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	card, err := db.FindCard(ctx, id)
	if err != nil {
		t.Fatalf("FindCard: %v", err)
	}
	if card.Interval != 0 {
		t.Errorf("Interval = %d, want 0", card.Interval)
	}
	if card.EaseFactor != domain.InitialEase {
		t.Errorf("EaseFactor = %v, want %v", card.EaseFactor, domain.InitialEase)
	}
	if card.LastReview != nil {
		t.Errorf("LastReview = %v, want nil", card.LastReview)
	}
	if want := domain.Day(storeNow); !card.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", card.NextReview, want)
	}
	if !card.CreatedAt.Equal(storeNow) {
		t.Errorf("CreatedAt = %v, want %v", card.CreatedAt, storeNow)
	}
	if card.Fingerprint == "" {
		t.Error("Fingerprint is empty")
	}
}

func TestCreateCardRejectsEmptyContent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	testCases := []domain.CardInput{
		{Question: "", Answer: "a"},
		{Question: "q", Answer: ""},
		{Question: "   ", Answer: "a"},
		{Question: "q", Answer: "\n\t "},
	}
	for _, in := range testCases {
		if _, err := db.CreateCard(ctx, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("CreateCard(%+v) error = %v, want ErrInvalidInput", in, err)
		}
	}

	cards, err := db.AllCards(ctx)
	if err != nil {
		t.Fatalf("AllCards: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("rejected input reached the store: %d cards", len(cards))
	}
}

func TestCreateCardRejectsDuplicateContent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateCard(ctx, domain.CardInput{Question: "What is Go?", Answer: "A language"}); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	_, err := db.CreateCard(ctx, domain.CardInput{Question: "what is go?  ", Answer: "A LANGUAGE"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate CreateCard error = %v, want ErrDuplicate", err)
	}
}

func TestApplyReviewRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.CreateCard(ctx, domain.CardInput{Question: "q", Answer: "a"})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	upd := domain.ReviewUpdate{
		Quality:    domain.Good,
		Interval:   6,
		EaseFactor: 2.5,
		NextReview: domain.Day(storeNow).AddDate(0, 0, 6),
		ReviewedAt: storeNow,
	}
	if err := db.ApplyReview(ctx, id, upd); err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}

	card, err := db.FindCard(ctx, id)
	if err != nil {
		t.Fatalf("FindCard: %v", err)
	}
	if card.Interval != 6 || card.EaseFactor != 2.5 {
		t.Errorf("card state = interval %d ease %v", card.Interval, card.EaseFactor)
	}
	if !card.NextReview.Equal(upd.NextReview) {
		t.Errorf("NextReview = %v, want %v", card.NextReview, upd.NextReview)
	}
	if card.LastReview == nil || !card.LastReview.Equal(storeNow) {
		t.Errorf("LastReview = %v, want %v", card.LastReview, storeNow)
	}

	logs, err := db.ReviewsForCard(ctx, id)
	if err != nil {
		t.Fatalf("ReviewsForCard: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d review logs, want 1", len(logs))
	}
	l := logs[0]
	if l.Quality != domain.Good || l.Interval != 6 || l.EaseFactor != 2.5 {
		t.Errorf("review log = %+v", l)
	}
	if !l.ReviewedAt.Equal(storeNow) {
		t.Errorf("ReviewedAt = %v, want %v", l.ReviewedAt, storeNow)
	}
}

func TestApplyReviewUnknownCard(t *testing.T) {
	db := openTestDB(t)
	err := db.ApplyReview(context.Background(), 42, domain.ReviewUpdate{
		Quality:    domain.Good,
		Interval:   1,
		EaseFactor: 2.5,
		NextReview: domain.Day(storeNow),
		ReviewedAt: storeNow,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ApplyReview on missing card error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCard(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.CreateCard(ctx, domain.CardInput{Question: "q", Answer: "a"})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if err := db.DeleteCard(ctx, id); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	if _, err := db.FindCard(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindCard after delete error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteCard(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteCard error = %v, want ErrNotFound", err)
	}
}

func TestSubscribeSeesMutations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var changes []Change
	db.Subscribe(func(c Change) { changes = append(changes, c) })

	id, err := db.CreateCard(ctx, domain.CardInput{Question: "q", Answer: "a"})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if err := db.ApplyReview(ctx, id, domain.ReviewUpdate{
		Quality: domain.Easy, Interval: 1, EaseFactor: 2.6,
		NextReview: domain.Day(storeNow).AddDate(0, 0, 1), ReviewedAt: storeNow,
	}); err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	if err := db.DeleteCard(ctx, id); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}

	want := []Change{
		{Op: OpCreate, CardID: id},
		{Op: OpReview, CardID: id},
		{Op: OpDelete, CardID: id},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestSourceLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	srcID, err := db.AddSource(ctx, "/decks/maths", domain.SourceLocal)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}

	cardID, err := db.CreateSourceCard(ctx, domain.CardInput{Question: "q", Answer: "a"}, srcID)
	if err != nil {
		t.Fatalf("CreateSourceCard: %v", err)
	}

	prints, err := db.FingerprintsBySource(ctx, srcID)
	if err != nil {
		t.Fatalf("FingerprintsBySource: %v", err)
	}
	if len(prints) != 1 {
		t.Fatalf("got %d fingerprints, want 1", len(prints))
	}
	for _, id := range prints {
		if id != cardID {
			t.Errorf("fingerprint maps to card %d, want %d", id, cardID)
		}
	}

	if err := db.TouchSource(ctx, srcID, storeNow); err != nil {
		t.Fatalf("TouchSource: %v", err)
	}
	sources, err := db.AllSources(ctx)
	if err != nil {
		t.Fatalf("AllSources: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	s := sources[0]
	if s.Kind != domain.SourceLocal || s.Path != "/decks/maths" {
		t.Errorf("source = %+v", s)
	}
	if s.LastImported == nil || !s.LastImported.Equal(storeNow) {
		t.Errorf("LastImported = %v, want %v", s.LastImported, storeNow)
	}

	// Deleting the source keeps the card but detaches it.
	if err := db.DeleteSource(ctx, srcID); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	if _, err := db.FindCard(ctx, cardID); err != nil {
		t.Errorf("card gone after source delete: %v", err)
	}
	prints, err = db.FingerprintsBySource(ctx, srcID)
	if err != nil {
		t.Fatalf("FingerprintsBySource: %v", err)
	}
	if len(prints) != 0 {
		t.Errorf("detached source still owns %d cards", len(prints))
	}
}
