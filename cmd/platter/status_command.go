package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"platter/internal/config"
	"platter/internal/engine"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show canonical table totals and missing enrichment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withEngine(func(cfg *config.Config, eng *engine.Engine, logger *slog.Logger) error {
				ctx := cmd.Context()
				summary, err := eng.Stats(ctx)
				if err != nil {
					return fmt.Errorf("stats: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Albums", "External IDs", "Missing Cover", "Missing Tracks", "Missing Summary"},
					[][]string{{
						strconv.Itoa(summary.Total),
						strconv.Itoa(summary.External),
						strconv.Itoa(summary.MissingCover),
						strconv.Itoa(summary.MissingTracks),
						strconv.Itoa(summary.MissingSummary),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
				))

				if !showAll {
					return nil
				}

				albums, err := eng.List(ctx)
				if err != nil {
					return fmt.Errorf("list albums: %w", err)
				}
				rows := make([][]string, 0, len(albums))
				for _, rec := range albums {
					rows = append(rows, []string{
						rec.AlbumID,
						rec.Artist,
						rec.Title,
						strconv.Itoa(len(rec.Tracks)),
						yesNo(!rec.NeedsCover()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Album ID", "Artist", "Album", "Tracks", "Cover"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "List every canonical row")
	return cmd
}
