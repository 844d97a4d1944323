package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ciaranbyrne/revise/internal/domain"
)

// AddSource registers a deck origin (local directory or git URL) and
// returns its id.
func (db *DB) AddSource(ctx context.Context, path string, kind domain.SourceKind) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO sources (path, kind) VALUES (?, ?)`, path, string(kind))
	if err != nil {
		return 0, fmt.Errorf("insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert source id: %w", err)
	}
	return id, nil
}

// AllSources returns every registered source.
func (db *DB) AllSources(ctx context.Context) ([]domain.Source, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, path, kind, last_imported FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var (
			s            domain.Source
			kind         string
			lastImported sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Path, &kind, &lastImported); err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		s.Kind = domain.SourceKind(kind)
		if lastImported.Valid {
			t, err := time.Parse(time.RFC3339, lastImported.String)
			if err != nil {
				return nil, fmt.Errorf("source %d: bad last_imported %q: %w", s.ID, lastImported.String, err)
			}
			s.LastImported = &t
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a source registration. Its cards stay; they
// simply stop being reconciled.
func (db *DB) DeleteSource(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx,
		`UPDATE cards SET source_id = NULL WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("detach cards of source %d: %w", id, err)
	}
	res, err := db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete source %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete source %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	return nil
}

// TouchSource stamps the source's last successful import time.
func (db *DB) TouchSource(ctx context.Context, id int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sources SET last_imported = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("touch source %d: %w", id, err)
	}
	return nil
}

// FingerprintsBySource maps fingerprint to card id for every card
// owned by the source. The importer reconciles against this.
func (db *DB) FingerprintsBySource(ctx context.Context, sourceID int64) (map[string]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT fingerprint, id FROM cards WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("query cards of source %d: %w", sourceID, err)
	}
	defer rows.Close()

	byPrint := make(map[string]int64)
	for rows.Next() {
		var (
			fp string
			id int64
		)
		if err := rows.Scan(&fp, &id); err != nil {
			return nil, fmt.Errorf("scan fingerprint row: %w", err)
		}
		byPrint[fp] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fingerprints: %w", err)
	}
	return byPrint, nil
}

// HasFingerprint reports whether any card stores the given content.
func (db *DB) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	_, err := db.cardIDByFingerprint(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
