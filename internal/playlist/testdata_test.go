package playlist

import (
	"fmt"

	"github.com/agleyzer/m3u8kit/internal/segment"
)

// newMedia builds a playlist of n segments of dur milliseconds each.
func newMedia(kind Kind, n int, dur int64, mediaSequence int64) *MediaPlaylist {
	p := &MediaPlaylist{
		URL:            "http://example.com/live/index.m3u8",
		Kind:           kind,
		Version:        3,
		MediaSequence:  mediaSequence,
		TargetDuration: dur,
	}
	var elapsed int64
	for i := 0; i < n; i++ {
		p.Segments = append(p.Segments, segment.Segment{
			ID:       mediaSequence + int64(i),
			URL:      fmt.Sprintf("http://example.com/live/seg%d.ts", i),
			Duration: dur,
			Range:    segment.Range{Start: elapsed, End: elapsed + dur},
		})
		elapsed += dur
	}
	if kind == KindVOD {
		p.TotalDuration = elapsed
	}
	return p
}
