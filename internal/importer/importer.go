// Package importer reconciles registered deck sources against the
// card store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ciaranbyrne/revise/internal/deck"
	"github.com/ciaranbyrne/revise/internal/domain"
	"github.com/ciaranbyrne/revise/internal/gitsource"
	"github.com/ciaranbyrne/revise/internal/storage"
)

// Importer walks deck sources and keeps the store in step with them.
type Importer struct {
	db       *storage.DB
	cacheDir string // checkout directory for git sources
}

// New returns an importer persisting into db. Git sources are
// checked out under cacheDir.
func New(db *storage.DB, cacheDir string) *Importer {
	return &Importer{db: db, cacheDir: cacheDir}
}

// Result summarizes one source reconciliation.
type Result struct {
	Parsed   int
	Inserted int
	Removed  int
	Errors   []error
}

// RunAll reconciles every registered source. Per-source failures are
// logged and skipped; the first store-level failure aborts.
func (imp *Importer) RunAll(ctx context.Context) error {
	sources, err := imp.db.AllSources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no deck sources registered")
		return nil
	}

	for _, source := range sources {
		res, err := imp.Run(ctx, source)
		if err != nil {
			slog.Error("source import failed", "id", source.ID, "path", source.Path, "error", err)
			continue
		}
		slog.Info("source imported",
			"id", source.ID,
			"path", source.Path,
			"parsed", res.Parsed,
			"inserted", res.Inserted,
			"removed", res.Removed,
			"errors", len(res.Errors),
		)
	}
	return nil
}

// Run reconciles a single source: parse every markdown deck under it,
// insert cards not yet stored, and remove this source's cards whose
// content has disappeared from the decks.
func (imp *Importer) Run(ctx context.Context, source domain.Source) (Result, error) {
	dir := source.Path
	if source.Kind == domain.SourceGit {
		local, err := gitsource.LocalPath(imp.cacheDir, source.Path)
		if err != nil {
			return Result{}, err
		}
		if err := os.MkdirAll(imp.cacheDir, 0o755); err != nil {
			return Result{}, fmt.Errorf("create cache dir: %w", err)
		}
		if err := gitsource.Sync(source.Path, local); err != nil {
			return Result{}, err
		}
		dir = local
	}

	var res Result
	seen := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		inputs, parseErr := deck.ParseFile(path)
		if parseErr != nil {
			res.Errors = append(res.Errors, fmt.Errorf("parse %s: %w", path, parseErr))
			return nil
		}
		res.Parsed += len(inputs)
		for _, in := range inputs {
			fp := deck.Fingerprint(in)
			seen[fp] = true

			exists, err := imp.db.HasFingerprint(ctx, fp)
			if err != nil {
				res.Errors = append(res.Errors, err)
				continue
			}
			if exists {
				continue
			}
			if _, err := imp.db.CreateSourceCard(ctx, in, source.ID); err != nil {
				if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, storage.ErrDuplicate) {
					res.Errors = append(res.Errors, fmt.Errorf("%s: %w", path, err))
					continue
				}
				return err
			}
			res.Inserted++
		}
		return nil
	})
	if walkErr != nil {
		return Result{}, fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	stored, err := imp.db.FingerprintsBySource(ctx, source.ID)
	if err != nil {
		return Result{}, err
	}
	for fp, id := range stored {
		if seen[fp] {
			continue
		}
		if err := imp.db.DeleteCard(ctx, id); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("remove orphaned card %d: %w", id, err))
			continue
		}
		res.Removed++
	}

	if err := imp.db.TouchSource(ctx, source.ID, time.Now()); err != nil {
		return Result{}, err
	}
	return res, nil
}
