package main

import (
	"context"
	"fmt"
	"time"

	"github.com/agleyzer/m3u8kit/internal/cluster"
	"github.com/agleyzer/m3u8kit/internal/live"
	"github.com/agleyzer/m3u8kit/internal/playlist"
	"github.com/agleyzer/m3u8kit/internal/segment"
	"github.com/agleyzer/m3u8kit/internal/server"
	"github.com/agleyzer/m3u8kit/internal/variant"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <url>",
		Short: "Loop a static playlist as a live HLS feed",
		Long: "Loop a static media playlist as a live HLS feed served at /playlist.m3u8.\n" +
			"For a master playlist the variant is chosen with the --video and --audio\n" +
			"patterns, falling back to the first variant.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.signalContext(cmd.Context())
			defer cancel()
			return a.serve(ctx, args[0])
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 8080, "HTTP server port")
	flags.Int("window", 6, "Number of segments in the live window")
	flags.Duration("loop-after", 0, "Maximum duration of content to loop (e.g., 10s, 1m30s); 0 loops everything")
	flags.String("video", "", "Regular expression for the video profile when the URL is a master playlist")
	flags.String("audio", "", "Regular expression for the audio profile when the URL is a master playlist")
	flags.Bool("cluster", false, "Replicate the playhead across peers with Raft")
	flags.String("raft-id", "", "Unique Raft node ID")
	flags.String("raft-bind", "", "Raft bind address (host:port)")
	flags.StringSlice("peers", nil, "Raft peer addresses including this node")

	for key, name := range map[string]string{
		"server.port":      "port",
		"server.window":    "window",
		"server.loopafter": "loop-after",
		"select.video":     "video",
		"select.audio":     "audio",
		"cluster.enabled":  "cluster",
		"cluster.raftid":   "raft-id",
		"cluster.bind":     "raft-bind",
		"cluster.peers":    "peers",
	} {
		a.bind(cmd, key, name)
	}

	return cmd
}

func (a *app) serve(ctx context.Context, url string) error {
	cfg := a.cfg

	source, err := a.loadSource(ctx, url)
	if err != nil {
		return err
	}

	if cfg.Server.LoopAfter > 0 {
		n := len(source.Segments)
		source = loopSubset(source, cfg.Server.LoopAfter)
		a.logger.Infow("applied loop-after",
			"originalSegments", n,
			"includedSegments", len(source.Segments),
			"duration", cfg.Server.LoopAfter,
		)
	}

	var (
		playhead live.Playhead
		opts     []live.WindowOption
	)
	srvOpts := []server.Option{server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)}

	if cfg.Cluster.Enabled {
		manager, err := a.startCluster(ctx, source.Duration())
		if err != nil {
			return err
		}
		defer manager.Shutdown()

		playhead = manager
		opts = append(opts, live.WithLeaderCheck(manager.IsLeader))
		srvOpts = append(srvOpts, server.WithCluster(manager))
	} else {
		local, err := live.NewLocalPlayhead(source.Duration())
		if err != nil {
			return fmt.Errorf("failed to create playhead: %w", err)
		}
		playhead = local
	}

	window, err := live.NewWindow(source, playhead, cfg.Server.Window, a.logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create live window: %w", err)
	}

	go window.Run(ctx)

	srv := server.New(window, cfg.Server.Port, a.logger, srvOpts...)

	a.logger.Infow("live HLS stream ready",
		"url", fmt.Sprintf("http://localhost:%d/playlist.m3u8", cfg.Server.Port),
		"health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
		"segments", len(source.Segments),
	)

	// Start server (blocks until shutdown)
	return srv.Start(ctx)
}

// loadSource loads url and resolves a master playlist to one of its
// variants.
func (a *app) loadSource(ctx context.Context, url string) (*playlist.MediaPlaylist, error) {
	a.logger.Infow("fetching source playlist", "url", url)
	pl, err := a.collector.Load(ctx, url)
	if err != nil {
		return nil, err
	}

	if master, ok := pl.(*playlist.MasterPlaylist); ok {
		if len(master.Variants) == 0 {
			return nil, fmt.Errorf("master playlist %s has no variants", url)
		}
		video, audio := predicates(a.cfg.Select)
		idx := variant.Select(master.Variants, video, audio)
		if idx == variant.NoMatch {
			a.logger.Warnw("no variant matches selection, using first variant")
			idx = 0
		}
		v := master.Variants[idx]
		a.logger.Infow("selected variant", "index", idx, "bandwidth", v.Bandwidth, "resolution", v.Resolution)

		if pl, err = a.collector.Load(ctx, v.URL); err != nil {
			return nil, err
		}
	}

	media, ok := pl.(*playlist.MediaPlaylist)
	if !ok {
		return nil, fmt.Errorf("expected a media playlist at %s", pl.Location())
	}
	if len(media.Segments) == 0 {
		return nil, fmt.Errorf("media playlist %s has no segments", media.URL)
	}

	a.logger.Infow("parsed media playlist",
		"kind", media.Kind,
		"segments", len(media.Segments),
		"targetDuration", media.TargetDuration,
	)
	return media, nil
}

// startCluster starts the Raft node and, on the leader, seeds the playhead.
func (a *app) startCluster(ctx context.Context, duration int64) (*cluster.Manager, error) {
	manager, err := cluster.NewManager(a.cfg.Cluster.Raft(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster manager: %w", err)
	}

	if err := manager.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start cluster: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := manager.WaitForLeader(waitCtx); err != nil {
		manager.Shutdown()
		return nil, fmt.Errorf("no cluster leader elected: %w", err)
	}

	if manager.IsLeader() {
		if err := manager.Initialize(cluster.PlayheadState{Duration: duration}); err != nil {
			manager.Shutdown()
			return nil, fmt.Errorf("failed to initialize playhead: %w", err)
		}
	}

	a.logger.Infow("cluster ready",
		"leader", manager.LeaderAddr(),
		"isLeader", manager.IsLeader(),
	)
	return manager, nil
}

// loopSubset returns a copy of p holding the leading segments that fit
// within maxDuration. A segment that crosses the limit is kept if it
// overshoots by no more than half of maxDuration. At least one segment is
// always kept, and a zero maxDuration keeps everything.
func loopSubset(p *playlist.MediaPlaylist, maxDuration time.Duration) *playlist.MediaPlaylist {
	out := p.Clone()
	if len(out.Segments) == 0 || maxDuration <= 0 {
		return out
	}

	limit := maxDuration.Milliseconds()
	var total int64
	var result []segment.Segment

	for i, seg := range p.Segments {
		// Always include at least the first segment
		if i == 0 {
			result = append(result, seg)
			total += seg.Duration
			continue
		}

		next := total + seg.Duration
		if next <= limit {
			result = append(result, seg)
			total = next
			continue
		}

		if next-limit <= limit/2 {
			result = append(result, seg)
			total = next
		}
		break
	}

	out.Segments = result
	if out.Kind == playlist.KindVOD {
		out.TotalDuration = total
	}
	return out
}
