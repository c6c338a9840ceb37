package playlist

import "github.com/agleyzer/m3u8kit/internal/segment"

// Trim returns a copy of p whose segments start at the first segment
// containing startTime (milliseconds) and hold at most maxSegments entries.
// maxSegments <= 0 means no limit. When startTime lies outside every segment
// the result has no segments. p is never modified.
func Trim(p *MediaPlaylist, startTime int64, maxSegments int) *MediaPlaylist {
	if p == nil {
		return nil
	}

	pos := len(p.Segments)
	for i, seg := range p.Segments {
		if seg.Range.Contains(startTime) {
			pos = i
			break
		}
	}

	end := len(p.Segments)
	if maxSegments > 0 && maxSegments < end-pos {
		end = pos + maxSegments
	}

	out := *p
	out.Segments = append([]segment.Segment{}, p.Segments[pos:end]...)
	if len(out.Segments) > 0 {
		out.MediaSequence = out.Segments[0].ID
	}

	return &out
}
