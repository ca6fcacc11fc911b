// Package enrichment fills missing album fields from external providers.
// Each concern (cover art, track lists) runs over its own bounded pool and
// walks a fixed fallback chain of providers; the first confident payload
// wins and is written back through the engine's merge so an enrichment can
// never downgrade what a better source already stored. Enrichment is best
// effort: a chain that finds nothing logs and moves on.
package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"platter/internal/album"
	"platter/internal/config"
	"platter/internal/engine"
	"platter/internal/errs"
	"platter/internal/logging"
	"platter/internal/metrics"
	"platter/internal/pool"
	"platter/internal/providers"
)

// ErrIncomplete rejects enqueue calls for records that lack the identity the
// providers need to search with.
var ErrIncomplete = errors.New("enrichment: record needs album id, artist, and album")

// Orchestrator schedules enrichment work for canonical records.
type Orchestrator struct {
	engine     *engine.Engine
	logger     *slog.Logger
	sink       metrics.Sink
	coverChain []providers.Provider
	trackChain []providers.Provider
	coverPool  *pool.Pool
	trackPool  *pool.Pool
	normalizer *Normalizer
	timeout    time.Duration
}

// New builds an orchestrator with its two worker pools. The chains are
// walked in the order given.
func New(eng *engine.Engine, cfg *config.Config, logger *slog.Logger, sink metrics.Sink, coverChain, trackChain []providers.Provider) *Orchestrator {
	return &Orchestrator{
		engine:     eng,
		logger:     logging.WithComponent(logger, "enrichment"),
		sink:       sink,
		coverChain: coverChain,
		trackChain: trackChain,
		coverPool:  pool.New(cfg.Pools.CoverWorkers, logger, "cover-pool"),
		trackPool:  pool.New(cfg.Pools.TrackWorkers, logger, "track-pool"),
		normalizer: &Normalizer{TargetSize: cfg.Covers.TargetSize, Format: cfg.Covers.Format},
		timeout:    cfg.SearchTimeout(),
	}
}

// Enqueue schedules whatever enrichment the record still needs. Records that
// need nothing are a no-op.
func (o *Orchestrator) Enqueue(ctx context.Context, rec *album.Album) error {
	if !rec.NeedsCover() && !rec.NeedsTracks() {
		return nil
	}
	if err := validate(rec); err != nil {
		return err
	}
	if rec.NeedsCover() {
		o.enqueueCover(ctx, rec)
	}
	if rec.NeedsTracks() {
		o.enqueueTracks(ctx, rec)
	}
	return nil
}

// EnqueueCover schedules a cover fetch and returns the task's completion
// channel.
func (o *Orchestrator) EnqueueCover(ctx context.Context, rec *album.Album) (<-chan error, error) {
	if err := validate(rec); err != nil {
		return nil, err
	}
	return o.enqueueCover(ctx, rec), nil
}

// EnqueueTracks schedules a track-list fetch and returns the task's
// completion channel.
func (o *Orchestrator) EnqueueTracks(ctx context.Context, rec *album.Album) (<-chan error, error) {
	if err := validate(rec); err != nil {
		return nil, err
	}
	return o.enqueueTracks(ctx, rec), nil
}

// Wait blocks until all enqueued enrichment has finished.
func (o *Orchestrator) Wait() {
	o.coverPool.Wait()
	o.trackPool.Wait()
}

// Close drains both pools and stops their workers.
func (o *Orchestrator) Close() {
	o.coverPool.Close()
	o.trackPool.Close()
}

func validate(rec *album.Album) error {
	if rec == nil || rec.AlbumID == "" || rec.Artist == "" || rec.Title == "" {
		return errs.Wrap(errs.ErrValidation, "enrichment", "enqueue", "", ErrIncomplete)
	}
	return nil
}

func (o *Orchestrator) enqueueCover(ctx context.Context, rec *album.Album) <-chan error {
	snapshot := *rec
	return o.coverPool.Submit(ctx, func(ctx context.Context) error {
		return o.fetchCover(ctx, &snapshot)
	})
}

func (o *Orchestrator) enqueueTracks(ctx context.Context, rec *album.Album) <-chan error {
	snapshot := *rec
	return o.trackPool.Submit(ctx, func(ctx context.Context) error {
		return o.fetchTracks(ctx, &snapshot)
	})
}

func (o *Orchestrator) fetchCover(ctx context.Context, rec *album.Album) error {
	for _, provider := range o.coverChain {
		payload := o.tryProvider(ctx, provider, rec, "cover")
		if payload == nil || payload.Cover.Size() == 0 {
			continue
		}

		cover, err := o.normalizer.Normalize(payload.Cover)
		if err != nil {
			// Keep the raw bytes rather than losing the find.
			o.logger.Warn("cover normalization failed, storing original",
				logging.String("album_id", rec.AlbumID),
				logging.String("provider", provider.Name()),
				logging.Error(err))
			cover = payload.Cover
		}

		if err := o.writeBack(ctx, rec, album.Candidate{Cover: cover}); err != nil {
			return err
		}
		o.logger.Info("cover enriched",
			logging.String("album_id", rec.AlbumID),
			logging.String("provider", provider.Name()),
			logging.Int("bytes", cover.Size()))
		return nil
	}

	o.logger.Info("no cover found",
		logging.String("album_id", rec.AlbumID),
		logging.String("artist", rec.Artist),
		logging.String("album", rec.Title))
	return nil
}

func (o *Orchestrator) fetchTracks(ctx context.Context, rec *album.Album) error {
	for _, provider := range o.trackChain {
		payload := o.tryProvider(ctx, provider, rec, "tracks")
		if payload == nil || len(payload.Tracks) == 0 {
			continue
		}

		if err := o.writeBack(ctx, rec, album.Candidate{Tracks: payload.Tracks}); err != nil {
			return err
		}
		o.logger.Info("tracks enriched",
			logging.String("album_id", rec.AlbumID),
			logging.String("provider", provider.Name()),
			logging.Int("tracks", len(payload.Tracks)))
		return nil
	}

	o.logger.Info("no track list found",
		logging.String("album_id", rec.AlbumID),
		logging.String("artist", rec.Artist),
		logging.String("album", rec.Title))
	return nil
}

// tryProvider asks one provider with the per-provider deadline applied.
// Failures are logged and absorbed so the chain can fall through.
func (o *Orchestrator) tryProvider(ctx context.Context, provider providers.Provider, rec *album.Album, operation string) *providers.Payload {
	provCtx := ctx
	cancel := context.CancelFunc(func() {})
	if o.timeout > 0 {
		provCtx, cancel = context.WithTimeout(ctx, o.timeout)
	}
	defer cancel()

	start := time.Now()
	payload, err := provider.Fetch(provCtx, rec)
	duration := time.Since(start)

	switch {
	case err != nil:
		outcome := metrics.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.Observe(o.sink, metrics.Call{
			Provider:  provider.Name(),
			Operation: operation,
			Duration:  duration,
			Attempt:   1,
			Outcome:   outcome,
		})
		o.logger.Warn("provider failed",
			logging.String("album_id", rec.AlbumID),
			logging.String("provider", provider.Name()),
			logging.String("operation", operation),
			logging.Error(err))
		return nil
	case payload.Empty():
		metrics.Observe(o.sink, metrics.Call{
			Provider:  provider.Name(),
			Operation: operation,
			Duration:  duration,
			Attempt:   1,
			Outcome:   metrics.OutcomeNoMatch,
		})
		return nil
	default:
		metrics.Observe(o.sink, metrics.Call{
			Provider:  provider.Name(),
			Operation: operation,
			Duration:  duration,
			Attempt:   1,
			Outcome:   metrics.OutcomeSuccess,
		})
		return payload
	}
}

// writeBack routes the fetched payload through the regular merge so the
// stored row only ever improves.
func (o *Orchestrator) writeBack(ctx context.Context, rec *album.Album, cand album.Candidate) error {
	cand.AlbumID = rec.AlbumID
	cand.Artist = rec.Artist
	cand.Album = rec.Title
	_, err := o.engine.Upsert(ctx, cand, time.Now())
	return err
}
