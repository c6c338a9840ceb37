package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/agleyzer/m3u8kit/internal/collector"
	"github.com/agleyzer/m3u8kit/internal/playlist"
	"github.com/agleyzer/m3u8kit/internal/variant"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Load a playlist and all of its variants and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verify := lo.Must(cmd.Flags().GetBool("verify"))

			res, err := a.collector.Collect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printResult(out, res)

			if verify {
				return verifyResult(out, res)
			}
			return nil
		},
	}

	cmd.Flags().Bool("verify", false, "Rebuild every playlist and check it with a strict HLS decoder")

	return cmd
}

func printResult(out io.Writer, res *collector.Result) {
	for _, m := range res.Masters {
		printMaster(out, m)
	}
	for _, m := range res.Media {
		printMedia(out, m)
	}
}

func printMaster(out io.Writer, m *playlist.MasterPlaylist) {
	fmt.Fprintf(out, "master %s (%d variants)\n", m.URL, len(m.Variants))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tBANDWIDTH\tRESOLUTION\tVIDEO\tAUDIO\tURL")
	for i, v := range m.Variants {
		fmt.Fprintf(tw, "  %d\t%d\t%s\t%s\t%s\t%s\n",
			i, v.Bandwidth, dash(v.Resolution), videoLabel(v), dash(v.Audio.Profile), v.URL)
	}
	tw.Flush()

	levels := lo.Filter(variant.Levels(m.Variants), func(l variant.Level, _ int) bool { return l.Name != "" })
	if len(levels) > 0 {
		names := lo.Map(levels, func(l variant.Level, _ int) string { return l.Name })
		fmt.Fprintf(out, "  levels: %v\n", names)
	}
}

func printMedia(out io.Writer, m *playlist.MediaPlaylist) {
	fmt.Fprintf(out, "media %s\n", m.URL)
	fmt.Fprintf(out, "  kind=%s segments=%d duration=%.3fs target=%.3fs sequence=%d\n",
		m.Kind, len(m.Segments), seconds(m.Duration()), seconds(m.TargetDuration), m.MediaSequence)
}

func verifyResult(out io.Writer, res *collector.Result) error {
	all := make([]playlist.Playlist, 0, len(res.Masters)+len(res.Media))
	for _, m := range res.Masters {
		all = append(all, m)
	}
	for _, m := range res.Media {
		all = append(all, m)
	}

	for _, p := range all {
		text, err := playlist.Build(p)
		if err != nil {
			return fmt.Errorf("failed to build %s: %w", p.Location(), err)
		}
		if err := playlist.Verify(text, p); err != nil {
			return fmt.Errorf("verification of %s failed: %w", p.Location(), err)
		}
		fmt.Fprintf(out, "verified %s\n", p.Location())
	}
	return nil
}

func videoLabel(v variant.Variant) string {
	if v.Video.Profile == "" {
		return "-"
	}
	if v.Video.Level == "" {
		return v.Video.Profile
	}
	return v.Video.Profile + "@" + v.Video.Level
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func seconds(ms int64) float64 {
	return float64(ms) / 1000
}
