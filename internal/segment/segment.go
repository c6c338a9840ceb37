// Package segment defines data structures for HLS media segments.
package segment

// Range is the presentation time span covered by a segment, in milliseconds.
type Range struct {
	Start int64
	End   int64
}

// Contains reports whether t falls within the range, both ends inclusive.
func (r Range) Contains(t int64) bool {
	return r.Start <= t && t <= r.End
}

// Segment represents a single entry of a media playlist.
type Segment struct {
	// ID is the absolute sequence number (media sequence + position at parse time)
	ID int64

	// URL is the segment URL, resolved against the playlist URL
	URL string

	// Duration is the segment duration in milliseconds
	Duration int64

	// Title is the optional title following the duration in #EXTINF
	Title string

	// Range is the cumulative time span of the segment within its playlist
	Range Range

	// Discontinuity marks a break in encoding or timestamps before this
	// segment (#EXT-X-DISCONTINUITY)
	Discontinuity bool
}
