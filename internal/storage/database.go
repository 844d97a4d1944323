// Package storage is the SQLite-backed card store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/ciaranbyrne/revise/internal/deck"
	"github.com/ciaranbyrne/revise/internal/domain"
)

// dateLayout encodes day-granularity dates; timestamps use RFC 3339.
const dateLayout = "2006-01-02"

var (
	// ErrNotFound is returned when an id references no stored card or
	// source.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when a card's fingerprint is already
	// stored.
	ErrDuplicate = errors.New("storage: card content already stored")
)

// Op labels a store change for subscribers.
type Op string

const (
	OpCreate Op = "create"
	OpReview Op = "review"
	OpDelete Op = "delete"
)

// Change describes one successful card mutation.
type Change struct {
	Op     Op
	CardID int64
}

// DB wraps the SQL connection and fans out change notifications.
type DB struct {
	conn     *sql.DB
	validate *validator.Validate
	now      func() time.Time

	mu   sync.Mutex
	subs []func(Change)
}

// Open opens (creating if needed) the database at dsn and applies the
// schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{
		conn:     conn,
		validate: validator.New(),
		now:      time.Now,
	}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Subscribe registers fn to be called after every successful card
// mutation. Callbacks run synchronously on the mutating goroutine.
func (db *DB) Subscribe(fn func(Change)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.subs = append(db.subs, fn)
}

func (db *DB) notify(c Change) {
	db.mu.Lock()
	subs := make([]func(Change), len(db.subs))
	copy(subs, db.subs)
	db.mu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

// CreateCard stores a new card with fresh scheduling state: interval
// 0, ease 2.5, due today. Empty question or answer is rejected with
// domain.ErrInvalidInput before any SQL runs; content already stored
// (by normalized fingerprint) is rejected with ErrDuplicate.
func (db *DB) CreateCard(ctx context.Context, in domain.CardInput) (int64, error) {
	return db.createCard(ctx, in, sql.NullInt64{})
}

// CreateSourceCard stores a new card owned by an import source.
func (db *DB) CreateSourceCard(ctx context.Context, in domain.CardInput, sourceID int64) (int64, error) {
	return db.createCard(ctx, in, sql.NullInt64{Int64: sourceID, Valid: true})
}

func (db *DB) createCard(ctx context.Context, in domain.CardInput, sourceID sql.NullInt64) (int64, error) {
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)
	if err := db.validate.StructCtx(ctx, in); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	fingerprint := deck.Fingerprint(in)
	if _, err := db.cardIDByFingerprint(ctx, fingerprint); err == nil {
		return 0, fmt.Errorf("%w: %s", ErrDuplicate, fingerprint)
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO cards (question, answer, fingerprint, interval, ease_factor, next_review, created_at, source_id)
		VALUES (?, ?, ?, 0, ?, ?, ?, ?)
	`,
		in.Question,
		in.Answer,
		fingerprint,
		domain.InitialEase,
		domain.Day(now).Format(dateLayout),
		now.UTC().Format(time.RFC3339),
		sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert card id: %w", err)
	}
	db.notify(Change{Op: OpCreate, CardID: id})
	return id, nil
}

func (db *DB) cardIDByFingerprint(ctx context.Context, fingerprint string) (int64, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM cards WHERE fingerprint = ?`, fingerprint).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("look up fingerprint: %w", err)
	}
	return id, nil
}

const cardColumns = `id, question, answer, fingerprint, interval, ease_factor, last_review, next_review, created_at`

// AllCards returns a snapshot of every stored card.
func (db *DB) AllCards(ctx context.Context) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

// FindCard returns the card with the given id, or ErrNotFound.
func (db *DB) FindCard(ctx context.Context, id int64) (domain.Card, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Card{}, fmt.Errorf("card %d: %w", id, ErrNotFound)
	}
	return card, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (domain.Card, error) {
	var (
		c          domain.Card
		lastReview sql.NullString
		nextReview string
		createdAt  string
	)
	err := row.Scan(&c.ID, &c.Question, &c.Answer, &c.Fingerprint,
		&c.Interval, &c.EaseFactor, &lastReview, &nextReview, &createdAt)
	if err != nil {
		return domain.Card{}, err
	}
	if c.NextReview, err = time.ParseInLocation(dateLayout, nextReview, time.UTC); err != nil {
		return domain.Card{}, fmt.Errorf("card %d: bad next_review %q: %w", c.ID, nextReview, err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return domain.Card{}, fmt.Errorf("card %d: bad created_at %q: %w", c.ID, createdAt, err)
	}
	if lastReview.Valid {
		t, err := time.Parse(time.RFC3339, lastReview.String)
		if err != nil {
			return domain.Card{}, fmt.Errorf("card %d: bad last_review %q: %w", c.ID, lastReview.String, err)
		}
		c.LastReview = &t
	}
	return c, nil
}

// ApplyReview persists the scheduling state produced by grading a
// review, and appends the matching review_log row, in one
// transaction. ErrNotFound if the card no longer exists.
func (db *DB) ApplyReview(ctx context.Context, id int64, upd domain.ReviewUpdate) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET interval = ?, ease_factor = ?, next_review = ?, last_review = ?
		WHERE id = ?
	`,
		upd.Interval,
		upd.EaseFactor,
		domain.Day(upd.NextReview).Format(dateLayout),
		upd.ReviewedAt.UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("update card %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("card %d: %w", id, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO review_log (card_id, quality, interval, ease_factor, reviewed_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		id,
		int(upd.Quality),
		upd.Interval,
		upd.EaseFactor,
		upd.ReviewedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("log review of card %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review of card %d: %w", id, err)
	}
	db.notify(Change{Op: OpReview, CardID: id})
	return nil
}

// ReviewsForCard returns the card's review history, oldest first.
func (db *DB) ReviewsForCard(ctx context.Context, cardID int64) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, card_id, quality, interval, ease_factor, reviewed_at
		FROM review_log WHERE card_id = ? ORDER BY id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("query reviews for card %d: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var (
			l          domain.ReviewLog
			quality    int
			reviewedAt string
		)
		if err := rows.Scan(&l.ID, &l.CardID, &quality, &l.Interval, &l.EaseFactor, &reviewedAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		l.Quality = domain.Quality(quality)
		if l.ReviewedAt, err = time.Parse(time.RFC3339, reviewedAt); err != nil {
			return nil, fmt.Errorf("review %d: bad reviewed_at %q: %w", l.ID, reviewedAt, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return logs, nil
}

// DeleteCard removes a card and its review history. ErrNotFound if
// the id is unknown.
func (db *DB) DeleteCard(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM review_log WHERE card_id = ?`, id); err != nil {
		return fmt.Errorf("delete reviews of card %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete card %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("card %d: %w", id, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete of card %d: %w", id, err)
	}
	db.notify(Change{Op: OpDelete, CardID: id})
	return nil
}
