package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"platter/internal/album"
	"platter/internal/config"
	"platter/internal/engine"
)

func newShowCommand(cmdCtx *commandContext) *cobra.Command {
	var artistFlag, albumFlag string

	cmd := &cobra.Command{
		Use:   "show [album-id]",
		Short: "Show one canonical record in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && (artistFlag == "" || albumFlag == "") {
				return fmt.Errorf("provide an album ID or both --artist and --album")
			}

			return cmdCtx.withEngine(func(cfg *config.Config, eng *engine.Engine, logger *slog.Logger) error {
				ctx := cmd.Context()

				var rec *album.Album
				var err error
				if len(args) == 1 {
					rec, err = eng.FindByAlbumID(ctx, args[0])
				} else {
					rec, err = eng.FindByNormalizedName(ctx, artistFlag, albumFlag)
				}
				if err != nil {
					return fmt.Errorf("lookup: %w", err)
				}
				if rec == nil {
					return fmt.Errorf("no matching album")
				}

				printAlbum(cmd, rec)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&artistFlag, "artist", "", "Look up by artist name")
	cmd.Flags().StringVar(&albumFlag, "album", "", "Look up by album title")
	return cmd
}

func printAlbum(cmd *cobra.Command, rec *album.Album) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Album ID", rec.AlbumID},
		{"Artist", rec.Artist},
		{"Album", rec.Title},
		{"Release date", rec.ReleaseDate},
		{"Country", rec.Country},
		{"Genres", joinNonEmpty(rec.Genre1, rec.Genre2)},
		{"Tracks", fmt.Sprintf("%d", len(rec.Tracks))},
		{"Cover", fmt.Sprintf("%s (%d bytes)", yesNo(rec.Cover.Size() > 0), rec.Cover.Size())},
		{"Summary", yesNo(!rec.NeedsSummary())},
		{"Updated", rec.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

	if len(rec.Tracks) == 0 {
		return
	}
	trackRows := make([][]string, 0, len(rec.Tracks))
	for i, track := range rec.Tracks {
		trackRows = append(trackRows, []string{fmt.Sprintf("%d", i+1), track.Name, track.Length})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Track", "Length"},
		trackRows,
		[]columnAlignment{alignRight, alignLeft, alignRight},
	))
}

func joinNonEmpty(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, ", ")
}
