package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"platter/internal/album"
	"platter/internal/config"
	"platter/internal/errs"
)

// Store manages canonical album persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the album database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	// Pragmas ride in the DSN so every pooled connection gets them; a pragma
	// run through db.Exec only reaches the one connection that executed it,
	// leaving the rest with busy_timeout=0. Write transactions take the lock
	// up front so racing upserts queue on busy_timeout instead of deadlocking
	// on a read-to-write upgrade.
	dsn := dbPath + "?_txlock=immediate" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrStore, "store", "open", dbPath, err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// FindByAlbumID fetches a canonical record by its album ID. Returns nil when
// no row matches.
func (s *Store) FindByAlbumID(ctx context.Context, albumID string) (*album.Album, error) {
	if albumID == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE album_id = ?`, albumID)
	rec, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by album id: %w", err)
	}
	return rec, nil
}

// FindByNormalizedKey fetches the canonical record addressed by a normalized
// artist+album key. Rows holding an external ID still match so that ID-less
// ingestion finds already-promoted records. Returns nil when no row matches.
func (s *Store) FindByNormalizedKey(ctx context.Context, key album.Key) (*album.Album, error) {
	if key.IsZero() {
		return nil, nil
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+albumColumns+` FROM albums WHERE norm_artist = ? AND norm_title = ? ORDER BY id LIMIT 1`,
		key.Artist,
		key.Album,
	)
	rec, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by normalized key: %w", err)
	}
	return rec, nil
}

// List returns all canonical records ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*album.Album, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	var albums []*album.Album
	for rows.Next() {
		rec, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, rec)
	}
	return albums, rows.Err()
}

// Summary aggregates canonical table state for diagnostic output.
type Summary struct {
	Total          int
	External       int
	MissingCover   int
	MissingTracks  int
	MissingSummary int
}

// Stats returns counts of rows and outstanding enrichments.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT
            COUNT(1),
            SUM(CASE WHEN album_id != '' AND album_id NOT LIKE 'internal-%' THEN 1 ELSE 0 END),
            SUM(CASE WHEN cover_image IS NULL OR LENGTH(cover_image) = 0 THEN 1 ELSE 0 END),
            SUM(CASE WHEN tracks_json IS NULL OR tracks_json = '' THEN 1 ELSE 0 END),
            SUM(CASE WHEN summary = '' THEN 1 ELSE 0 END)
        FROM albums`)

	var summary Summary
	var external, cover, tracks, summaryMissing sql.NullInt64
	if err := row.Scan(&summary.Total, &external, &cover, &tracks, &summaryMissing); err != nil {
		return Summary{}, fmt.Errorf("album stats: %w", err)
	}
	summary.External = int(external.Int64)
	summary.MissingCover = int(cover.Int64)
	summary.MissingTracks = int(tracks.Int64)
	summary.MissingSummary = int(summaryMissing.Int64)
	return summary, nil
}

const albumColumns = "album_id, artist, title, release_date, country, genre_1, genre_2, tracks_json, cover_image, cover_format, summary, summary_source, summary_fetched_at, created_at, updated_at"

func scanAlbum(scanner interface{ Scan(dest ...any) error }) (*album.Album, error) {
	var (
		albumID       string
		artist        string
		title         string
		releaseDate   string
		country       string
		genre1        string
		genre2        string
		tracksJSON    sql.NullString
		coverImage    []byte
		coverFormat   string
		summary       string
		summarySource string
		summaryAtRaw  sql.NullString
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&albumID,
		&artist,
		&title,
		&releaseDate,
		&country,
		&genre1,
		&genre2,
		&tracksJSON,
		&coverImage,
		&coverFormat,
		&summary,
		&summarySource,
		&summaryAtRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &album.Album{
		AlbumID:       albumID,
		Artist:        artist,
		Title:         title,
		ReleaseDate:   releaseDate,
		Country:       country,
		Genre1:        genre1,
		Genre2:        genre2,
		Summary:       summary,
		SummarySource: summarySource,
	}
	if tracksJSON.Valid && tracksJSON.String != "" {
		if err := json.Unmarshal([]byte(tracksJSON.String), &rec.Tracks); err != nil {
			return nil, fmt.Errorf("decode tracks: %w", err)
		}
	}
	if len(coverImage) > 0 {
		rec.Cover = &album.CoverImage{Data: coverImage, Format: coverFormat}
	}
	if summaryAtRaw.Valid {
		if ts, err := parseTimeString(summaryAtRaw.String); err == nil {
			rec.SummaryFetchedAt = &ts
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

func encodeTracks(tracks []album.Track) (any, error) {
	if len(tracks) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return nil, fmt.Errorf("marshal tracks: %w", err)
	}
	return string(data), nil
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
