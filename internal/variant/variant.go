// Package variant defines data structures for HLS variant streams in master playlists.
package variant

import (
	"strconv"
	"strings"

	"github.com/agleyzer/m3u8kit/internal/codec"
)

// Variant represents a single variant stream in an HLS master playlist.
// Each variant typically represents a different quality level (bitrate/resolution).
type Variant struct {
	// URL is the variant's media playlist URL, resolved against the master URL
	URL string

	// RawInfo is the original #EXT-X-STREAM-INF attribute text
	RawInfo string

	// CodecsRaw is the CODECS attribute as written (e.g., "avc1.4d401f,mp4a.40.2")
	CodecsRaw string

	// Bandwidth is the peak segment bitrate in bits per second, 0 if absent
	Bandwidth int64

	// Resolution is the video resolution (e.g., "1920x1080")
	// Empty string if not specified in master playlist
	Resolution string

	Video codec.VideoCodec
	Audio codec.AudioCodec
}

// Dimensions splits Resolution into width and height. Both are 0 when the
// resolution is absent or malformed.
func (v Variant) Dimensions() (width, height int) {
	w, h, ok := strings.Cut(strings.ToLower(v.Resolution), "x")
	if !ok {
		return 0, 0
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil {
		return 0, 0
	}
	return width, height
}
