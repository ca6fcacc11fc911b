package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"platter/internal/album"
	"platter/internal/config"
	"platter/internal/engine"
	"platter/internal/enrichment"
	"platter/internal/logging"
	"platter/internal/metrics"
	"platter/internal/sequencer"
)

// optionalString distinguishes an absent JSON key from an explicit null,
// mirroring the tri-state genre semantics.
type optionalString struct {
	set   bool
	value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.value = &s
	return nil
}

func (o optionalString) toField() album.Field {
	switch {
	case !o.set:
		return album.Field{}
	case o.value == nil:
		return album.FieldClear()
	default:
		return album.FieldValue(*o.value)
	}
}

type candidateInput struct {
	AlbumID     string         `json:"album_id"`
	Artist      string         `json:"artist"`
	Album       string         `json:"album"`
	ReleaseDate string         `json:"release_date"`
	Country     string         `json:"country"`
	Genre1      optionalString `json:"genre_1"`
	Genre2      optionalString `json:"genre_2"`
	Tracks      []album.Track  `json:"tracks"`
}

func (in candidateInput) toCandidate() album.Candidate {
	return album.Candidate{
		AlbumID:     in.AlbumID,
		Artist:      in.Artist,
		Album:       in.Album,
		ReleaseDate: in.ReleaseDate,
		Country:     in.Country,
		Genre1:      in.Genre1.toField(),
		Genre2:      in.Genre2.toField(),
		Tracks:      in.Tracks,
	}
}

func readCandidates(path string) ([]album.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var inputs []candidateInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cands := make([]album.Candidate, 0, len(inputs))
	for _, in := range inputs {
		cands = append(cands, in.toCandidate())
	}
	return cands, nil
}

func newIngestCommand(cmdCtx *commandContext) *cobra.Command {
	var skipEnrichment bool

	cmd := &cobra.Command{
		Use:   "ingest <file.json>",
		Short: "Batch-upsert album candidates and enrich the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cands, err := readCandidates(args[0])
			if err != nil {
				return err
			}
			if len(cands) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to ingest")
				return nil
			}

			return cmdCtx.withEngine(func(cfg *config.Config, eng *engine.Engine, logger *slog.Logger) error {
				lock, err := acquireLock(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = lock.Unlock() }()

				ctx := cmd.Context()
				results, err := eng.BatchUpsert(ctx, cands, time.Now())
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}

				var inserted, merged int
				for _, result := range results {
					if result.WasInserted {
						inserted++
					}
					if result.WasMerged {
						merged++
					}
				}

				var enriched int
				if !skipEnrichment {
					enriched, err = runEnrichment(ctx, cfg, eng, logger, results)
					if err != nil {
						return err
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Ingested %d candidates: %d inserted, %d merged\n",
					len(cands), inserted, merged)
				if !skipEnrichment {
					fmt.Fprintf(out, "Enrichment scheduled for %d records\n", enriched)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipEnrichment, "no-enrich", false, "Skip provider enrichment after the upsert")
	return cmd
}

// runEnrichment walks the upsert results and schedules whatever each record
// still lacks, then waits for the orchestrator to drain.
func runEnrichment(ctx context.Context, cfg *config.Config, eng *engine.Engine, logger *slog.Logger, results map[string]engine.Result) (int, error) {
	seq := sequencer.New(sequencer.Config{
		MinInterval:    cfg.MinInterval(),
		RequestTimeout: cfg.RequestTimeout(),
		MaxRetries:     cfg.Sequencer.MaxRetries,
	}, logger, metrics.Nop())
	defer seq.Close()

	coverChain, trackChain, err := enrichment.Chains(cfg, seq)
	if err != nil {
		return 0, fmt.Errorf("build provider chains: %w", err)
	}

	orch := enrichment.New(eng, cfg, logger, metrics.Nop(), coverChain, trackChain)
	defer orch.Close()

	var scheduled int
	for _, result := range results {
		if !result.NeedsCoverFetch && !result.NeedsTrackFetch {
			continue
		}
		rec, err := eng.FindByAlbumID(ctx, result.AlbumID)
		if err != nil {
			return scheduled, err
		}
		if rec == nil {
			continue
		}
		if err := orch.Enqueue(ctx, rec); err != nil {
			// Records without enough identity to search on are skipped,
			// not fatal.
			logger.Warn("enrichment skipped",
				logging.String("album_id", result.AlbumID),
				logging.Error(err))
			continue
		}
		scheduled++
	}

	orch.Wait()
	return scheduled, nil
}
