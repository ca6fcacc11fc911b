package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"platter/internal/album"
	"platter/internal/errs"
	"platter/internal/logging"
	"platter/internal/store"
)

// ErrNoIdentity is returned when a candidate carries neither an album ID nor
// enough of an artist+album pair to address a canonical row.
var ErrNoIdentity = errors.New("candidate has no usable identity")

// Engine is the canonical record engine.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// New constructs an engine over the canonical store.
func New(st *store.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  st,
		logger: logging.WithComponent(logger, "engine"),
	}
}

// Result describes the canonical row an upsert produced and which
// enrichments it still lacks.
type Result struct {
	AlbumID           string
	WasInserted       bool
	WasMerged         bool
	NeedsCoverFetch   bool
	NeedsTrackFetch   bool
	NeedsSummaryFetch bool
}

// Upsert resolves the candidate's identity, then atomically inserts it or
// merges it into the matching canonical row. Candidates without an ID get a
// generated internal one; candidates whose name matches a row that already
// holds an external ID merge into that row instead of creating a duplicate.
func (e *Engine) Upsert(ctx context.Context, cand album.Candidate, now time.Time) (Result, error) {
	cand.Sanitize()
	if cand.AlbumID == "" && cand.Key().IsZero() {
		return Result{}, errs.Wrap(errs.ErrValidation, "engine", "upsert", "", ErrNoIdentity)
	}
	if cand.AlbumID == "" {
		cand.AlbumID = album.NewInternalID()
	}

	outcome, err := e.store.Upsert(ctx, &cand, now)
	if err != nil {
		return Result{}, fmt.Errorf("upsert %s/%s: %w", cand.Artist, cand.Album, err)
	}

	result := resultFor(outcome)
	e.logger.Debug("canonical upsert",
		logging.String("album_id", result.AlbumID),
		logging.Bool("inserted", result.WasInserted),
		logging.Bool("merged", result.WasMerged),
		logging.Bool("needs_cover", result.NeedsCoverFetch),
		logging.Bool("needs_tracks", result.NeedsTrackFetch))
	return result, nil
}

// BatchUpsert applies the upsert contract to many candidates. Candidates are
// partitioned into those carrying an external ID and those addressed by name,
// because the two groups conflict on different keys. Each row keeps its own
// atomicity; there is no transaction spanning the batch.
//
// The returned map is keyed by each candidate's submitted identity: the album
// ID when one was supplied, otherwise the normalized artist+album key.
// Candidates without any identity are skipped with a warning rather than
// failing the batch; store-level failures abort it.
func (e *Engine) BatchUpsert(ctx context.Context, cands []album.Candidate, now time.Time) (map[string]Result, error) {
	withID := make([]album.Candidate, 0, len(cands))
	byName := make([]album.Candidate, 0, len(cands))
	for _, cand := range cands {
		cand.Sanitize()
		switch {
		case cand.AlbumID != "":
			withID = append(withID, cand)
		case !cand.Key().IsZero():
			byName = append(byName, cand)
		default:
			e.logger.Warn("skipping candidate without identity",
				logging.String("artist", cand.Artist),
				logging.String("album", cand.Album))
		}
	}

	results := make(map[string]Result, len(withID)+len(byName))
	for _, cand := range withID {
		result, err := e.Upsert(ctx, cand, now)
		if err != nil {
			return results, err
		}
		results[cand.AlbumID] = result
	}
	for _, cand := range byName {
		result, err := e.Upsert(ctx, cand, now)
		if err != nil {
			return results, err
		}
		results[cand.Key().String()] = result
	}
	return results, nil
}

// FindByAlbumID returns the canonical row for an album ID, or nil.
func (e *Engine) FindByAlbumID(ctx context.Context, albumID string) (*album.Album, error) {
	return e.store.FindByAlbumID(ctx, albumID)
}

// FindByNormalizedName returns the canonical row addressed by an artist+album
// pair, or nil.
func (e *Engine) FindByNormalizedName(ctx context.Context, artist, title string) (*album.Album, error) {
	return e.store.FindByNormalizedKey(ctx, album.NormalizeKey(artist, title))
}

// List returns every canonical row ordered by artist and title.
func (e *Engine) List(ctx context.Context) ([]*album.Album, error) {
	return e.store.List(ctx)
}

// Stats summarizes the canonical table.
func (e *Engine) Stats(ctx context.Context) (store.Summary, error) {
	return e.store.Stats(ctx)
}

func resultFor(outcome *store.Outcome) Result {
	return Result{
		AlbumID:           outcome.Album.AlbumID,
		WasInserted:       outcome.Inserted,
		WasMerged:         outcome.Merged,
		NeedsCoverFetch:   outcome.Album.NeedsCover(),
		NeedsTrackFetch:   outcome.Album.NeedsTracks(),
		NeedsSummaryFetch: outcome.Album.NeedsSummary(),
	}
}
