package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"platter/internal/album"
	"platter/internal/errs"
)

// upsertRetries bounds how often a losing writer re-merges against the
// committed row after an insert race.
const upsertRetries = 3

// Outcome describes what an upsert did to the canonical table.
type Outcome struct {
	Album    *album.Album
	Inserted bool
	Merged   bool
}

// Upsert atomically inserts the candidate or merges it into the existing row
// sharing its identity. Identity resolution tries the album ID first, then
// the normalized artist+album key. The merge runs inside the same transaction
// as the write, so no reader or writer observes a partially-merged row.
//
// When two writers race for the same identity, the database's unique indexes
// pick the winner; the loser re-reads the committed row and merges against it.
func (s *Store) Upsert(ctx context.Context, cand *album.Candidate, now time.Time) (*Outcome, error) {
	if cand == nil {
		return nil, errors.New("candidate is nil")
	}

	var lastErr error
	for attempt := 0; attempt < upsertRetries; attempt++ {
		outcome, err := s.upsertOnce(ctx, cand, now)
		if err == nil {
			return outcome, nil
		}
		if !isUniqueViolation(err) && !isBusy(err) {
			return nil, err
		}
		// Lost an insert race or the write lock. The winner's row is
		// committed now, so the next attempt finds it and merges instead.
		lastErr = err
	}
	return nil, errs.Wrap(errs.ErrStore, "store", "upsert", "retries exhausted", lastErr)
}

func (s *Store) upsertOnce(ctx context.Context, cand *album.Candidate, now time.Time) (*Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rowID, existing, err := findForUpdate(ctx, tx, cand)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		inserted := cand.ToAlbum(now)
		if err := insertAlbum(ctx, tx, inserted); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit insert: %w", err)
		}
		return &Outcome{Album: inserted, Inserted: true}, nil
	}

	merged, changed := album.Merge(existing, cand, now)
	if changed {
		if err := updateAlbum(ctx, tx, rowID, merged); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}
	return &Outcome{Album: merged, Merged: changed}, nil
}

func findForUpdate(ctx context.Context, tx *sql.Tx, cand *album.Candidate) (int64, *album.Album, error) {
	if cand.AlbumID != "" {
		rowID, existing, err := selectByAlbumID(ctx, tx, cand.AlbumID)
		if err != nil {
			return 0, nil, err
		}
		if existing != nil {
			return rowID, existing, nil
		}
	}
	key := cand.Key()
	if key.IsZero() {
		return 0, nil, nil
	}
	rowID, existing, err := selectByKey(ctx, tx, key)
	if err != nil || existing == nil {
		return 0, nil, err
	}
	// A row holding an external ID is addressed by that ID alone. A candidate
	// carrying a different external ID is a distinct album that happens to
	// share the name, so it gets a row of its own.
	if cand.HasExternalID() && existing.HasExternalID() {
		return 0, nil, nil
	}
	return rowID, existing, nil
}

func selectByAlbumID(ctx context.Context, tx *sql.Tx, albumID string) (int64, *album.Album, error) {
	row := tx.QueryRowContext(ctx, `SELECT id, `+albumColumns+` FROM albums WHERE album_id = ?`, albumID)
	return scanAlbumWithID(row)
}

func selectByKey(ctx context.Context, tx *sql.Tx, key album.Key) (int64, *album.Album, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, `+albumColumns+` FROM albums WHERE norm_artist = ? AND norm_title = ? ORDER BY id LIMIT 1`,
		key.Artist,
		key.Album,
	)
	return scanAlbumWithID(row)
}

func scanAlbumWithID(row *sql.Row) (int64, *album.Album, error) {
	var id int64
	rec, err := scanAlbum(prependScanner{row: row, id: &id})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("select for update: %w", err)
	}
	return id, rec, nil
}

// prependScanner feeds the leading id column to its own destination and the
// remaining columns to scanAlbum's destinations.
type prependScanner struct {
	row *sql.Row
	id  *int64
}

func (p prependScanner) Scan(dest ...any) error {
	all := make([]any, 0, len(dest)+1)
	all = append(all, p.id)
	all = append(all, dest...)
	return p.row.Scan(all...)
}

func insertAlbum(ctx context.Context, tx *sql.Tx, rec *album.Album) error {
	tracks, err := encodeTracks(rec.Tracks)
	if err != nil {
		return err
	}
	key := rec.NormalizedKey()

	var coverData any
	coverFormat := ""
	if rec.Cover.Size() > 0 {
		coverData = rec.Cover.Data
		coverFormat = rec.Cover.Format
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO albums (
            album_id, artist, title, norm_artist, norm_title,
            release_date, country, genre_1, genre_2,
            tracks_json, cover_image, cover_format,
            summary, summary_source, summary_fetched_at,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AlbumID,
		rec.Artist,
		rec.Title,
		key.Artist,
		key.Album,
		rec.ReleaseDate,
		rec.Country,
		rec.Genre1,
		rec.Genre2,
		tracks,
		coverData,
		coverFormat,
		rec.Summary,
		rec.SummarySource,
		nullableTime(rec.SummaryFetchedAt),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert album: %w", err)
	}
	return nil
}

func updateAlbum(ctx context.Context, tx *sql.Tx, rowID int64, rec *album.Album) error {
	tracks, err := encodeTracks(rec.Tracks)
	if err != nil {
		return err
	}
	key := rec.NormalizedKey()

	var coverData any
	coverFormat := ""
	if rec.Cover.Size() > 0 {
		coverData = rec.Cover.Data
		coverFormat = rec.Cover.Format
	}

	_, err = tx.ExecContext(
		ctx,
		`UPDATE albums
         SET album_id = ?, artist = ?, title = ?, norm_artist = ?, norm_title = ?,
             release_date = ?, country = ?, genre_1 = ?, genre_2 = ?,
             tracks_json = ?, cover_image = ?, cover_format = ?,
             updated_at = ?
         WHERE id = ?`,
		rec.AlbumID,
		rec.Artist,
		rec.Title,
		key.Artist,
		key.Album,
		rec.ReleaseDate,
		rec.Country,
		rec.Genre1,
		rec.Genre2,
		tracks,
		coverData,
		coverFormat,
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		rowID,
	)
	if err != nil {
		return fmt.Errorf("update album: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isBusy(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SQLITE_BUSY")
}
