package live

import (
	"context"
	"fmt"
	"time"

	"github.com/agleyzer/m3u8kit/internal/metrics"
	"github.com/agleyzer/m3u8kit/internal/playlist"
	"github.com/agleyzer/m3u8kit/internal/segment"
	"github.com/agleyzer/m3u8kit/pkg/logger"
)

// Window renders a sliding live view of a source media playlist.
type Window struct {
	source     *playlist.MediaPlaylist
	playhead   Playhead
	windowSize int
	// leader reports whether this process should advance the playhead
	leader func() bool
	logger *logger.Logger
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithLeaderCheck makes Run advance the playhead only while leader returns
// true. Used when the playhead is shared by several processes.
func WithLeaderCheck(leader func() bool) WindowOption {
	return func(w *Window) { w.leader = leader }
}

// NewWindow creates a Window over source.
func NewWindow(source *playlist.MediaPlaylist, playhead Playhead, windowSize int, log *logger.Logger, opts ...WindowOption) (*Window, error) {
	if source == nil || len(source.Segments) == 0 {
		return nil, fmt.Errorf("cannot create live window with zero segments")
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}

	if source.Duration() <= 0 {
		return nil, fmt.Errorf("source playlist has zero total duration")
	}

	if windowSize > len(source.Segments) {
		log.Warnw("window size larger than segment count", "windowSize", windowSize, "segments", len(source.Segments))
	}

	w := &Window{
		source:     source,
		playhead:   playhead,
		windowSize: windowSize,
		leader:     func() bool { return true },
		logger:     log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Current returns the live playlist at the current playhead. The window
// always holds windowSize segments: near the end of the source it continues
// from the head, and the first repeated segment carries a discontinuity.
// Segment IDs keep increasing across loops.
func (w *Window) Current() *playlist.MediaPlaylist {
	position, loops := w.playhead.Position()
	count := int64(len(w.source.Segments))
	duration := w.source.Duration()

	// Adjacent ranges share a boundary; look 1ms past the playhead so a
	// boundary selects the segment starting there.
	at := w.source.Segments[0].Range.Start + position + 1
	view := playlist.Trim(w.source, at, w.windowSize)
	view.Kind = playlist.KindLive
	view.TotalDuration = 0

	offset := int64(loops) * count
	for i := range view.Segments {
		// The loop point stays marked for as long as it is in the window.
		if loops > 0 && view.Segments[i].ID == w.source.Segments[0].ID {
			view.Segments[i].Discontinuity = true
		}
		view.Segments[i].ID += offset
		view.Segments[i].Range = shift(view.Segments[i].Range, int64(loops)*duration)
	}

	for lap := int64(loops) + 1; len(view.Segments) < w.windowSize; lap++ {
		for j, seg := range w.source.Segments {
			if len(view.Segments) == w.windowSize {
				break
			}
			seg.ID += lap * count
			seg.Range = shift(seg.Range, lap*duration)
			if j == 0 {
				seg.Discontinuity = true
			}
			view.Segments = append(view.Segments, seg)
		}
	}

	view.MediaSequence = view.Segments[0].ID
	return view
}

func shift(r segment.Range, by int64) segment.Range {
	return segment.Range{Start: r.Start + by, End: r.End + by}
}

// Render builds the live playlist text at the current playhead.
func (w *Window) Render() (string, error) {
	return playlist.Build(w.Current())
}

// Interval is how often Run advances the playhead: the target duration,
// falling back to the first segment's duration.
func (w *Window) Interval() time.Duration {
	ms := w.source.TargetDuration
	if ms <= 0 {
		ms = w.source.Segments[0].Duration
	}
	if ms <= 0 {
		ms = 1000
	}
	return time.Duration(ms) * time.Millisecond
}

// Run advances the playhead every Interval until ctx is canceled.
func (w *Window) Run(ctx context.Context) {
	interval := w.Interval()

	w.logger.Infow("starting auto-advance",
		"interval", interval,
		"windowSize", w.windowSize,
		"totalSegments", len(w.source.Segments),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infow("stopping auto-advance")
			return
		case <-ticker.C:
			if !w.leader() {
				continue
			}
			if err := w.playhead.Advance(interval.Milliseconds()); err != nil {
				w.logger.WithError(err).Warnw("failed to advance playhead")
				continue
			}
			position, loops := w.playhead.Position()
			metrics.PlayheadPosition.Set(float64(position) / 1000)
			metrics.PlayheadLoops.Set(float64(loops))
			w.logger.Debugw("advanced window", "position", position, "loops", loops)
		}
	}
}

// Stats returns current statistics about the window.
func (w *Window) Stats() map[string]interface{} {
	position, loops := w.playhead.Position()
	view := w.Current()

	return map[string]interface{}{
		"source_url":      w.source.URL,
		"source_kind":     w.source.Kind.String(),
		"window_size":     w.windowSize,
		"total_segments":  len(w.source.Segments),
		"target_duration": w.source.TargetDuration,
		"position_ms":     position,
		"loops":           loops,
		"media_sequence":  view.MediaSequence,
		"window_segments": len(view.Segments),
	}
}
