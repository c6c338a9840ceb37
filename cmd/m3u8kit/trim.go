package main

import (
	"fmt"

	"github.com/agleyzer/m3u8kit/internal/collector"
	"github.com/agleyzer/m3u8kit/internal/playlist"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newTrimCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trim <url>",
		Short: "Print a media playlist trimmed to a start time and segment count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := lo.Must(cmd.Flags().GetDuration("start"))
			maxSegments := lo.Must(cmd.Flags().GetInt("max"))
			if start < 0 {
				return fmt.Errorf("--start must not be negative, got %s", start)
			}

			res, err := a.collector.Collect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			media, err := pickMedia(res)
			if err != nil {
				return err
			}

			trimmed := playlist.Trim(media, start.Milliseconds(), maxSegments)
			a.logger.Debugw("trimmed playlist",
				"url", media.URL,
				"segments", len(media.Segments),
				"kept", len(trimmed.Segments),
			)

			text, err := playlist.Build(trimmed)
			if err != nil {
				return fmt.Errorf("failed to build trimmed playlist: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().Duration("start", 0, "Start time within the playlist (e.g., 12s, 1m30s)")
	cmd.Flags().Int("max", 0, "Maximum number of segments to keep (0 keeps all)")

	return cmd
}

// pickMedia returns the first media playlist of a collection.
func pickMedia(res *collector.Result) (*playlist.MediaPlaylist, error) {
	if res == nil || len(res.Media) == 0 {
		return nil, fmt.Errorf("no media playlist found")
	}
	return res.Media[0], nil
}
