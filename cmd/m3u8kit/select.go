package main

import (
	"fmt"
	"regexp"

	"github.com/agleyzer/m3u8kit/internal/config"
	"github.com/agleyzer/m3u8kit/internal/playlist"
	"github.com/agleyzer/m3u8kit/internal/variant"
	"github.com/spf13/cobra"
)

func newSelectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <url>",
		Short: "Pick the first variant of a master playlist matching codec profiles",
		Long: "Pick the first variant of a master playlist whose video and audio profiles\n" +
			"match. Without patterns the video profile must be Base and the audio\n" +
			"profile must contain AAC.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pl, err := a.collector.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			master, ok := pl.(*playlist.MasterPlaylist)
			if !ok {
				return fmt.Errorf("%s is a media playlist, not a master playlist", args[0])
			}

			video, audio := predicates(a.cfg.Select)
			idx := variant.Select(master.Variants, video, audio)
			if idx == variant.NoMatch {
				return fmt.Errorf("no variant matches video=%q audio=%q", a.cfg.Select.Video, a.cfg.Select.Audio)
			}

			v := master.Variants[idx]
			a.logger.Debugw("selected variant", "index", idx, "video", v.Video.Profile, "audio", v.Audio.Profile)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", idx, v.URL)
			return nil
		},
	}

	cmd.Flags().String("video", "", "Regular expression for the video profile (default: equals Base)")
	cmd.Flags().String("audio", "", "Regular expression for the audio profile (default: contains AAC)")
	a.bind(cmd, "select.video", "video")
	a.bind(cmd, "select.audio", "audio")

	return cmd
}

// predicates builds variant predicates from configured patterns, falling
// back to the defaults for empty ones. Patterns are validated with the config.
func predicates(c config.SelectConfig) (video, audio variant.Predicate) {
	video, audio = variant.DefaultVideo, variant.DefaultAudio
	if c.Video != "" {
		video = variant.Pattern(regexp.MustCompile(c.Video))
	}
	if c.Audio != "" {
		audio = variant.Pattern(regexp.MustCompile(c.Audio))
	}
	return video, audio
}
