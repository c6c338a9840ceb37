// Package playlist defines the typed HLS playlist model and the operations
// that work on parsed playlists: building text, trimming live windows and
// verifying generated output.
package playlist

import (
	"errors"

	"github.com/agleyzer/m3u8kit/internal/segment"
	"github.com/agleyzer/m3u8kit/internal/variant"
)

// ErrMalformed is the root of every malformed-input error: a missing
// #EXTM3U header, a master playlist without variants, or a playlist that
// cannot be built.
var ErrMalformed = errors.New("malformed playlist")

// NRTLiveThreshold is the target duration, in milliseconds, at or below
// which a live playlist is treated as near-real-time.
const NRTLiveThreshold = 2000

// Type identifies the two kinds of playlist.
type Type int

const (
	// TypeMaster is a playlist of variant streams.
	TypeMaster Type = iota + 1
	// TypeMedia is a playlist of segments.
	TypeMedia
)

func (t Type) String() string {
	switch t {
	case TypeMaster:
		return "MASTER"
	case TypeMedia:
		return "MEDIA"
	default:
		return "UNKNOWN"
	}
}

// Kind classifies a media playlist.
type Kind int

const (
	// KindLive is a sliding live playlist without an end marker.
	KindLive Kind = iota
	// KindVOD is a complete playlist terminated by #EXT-X-ENDLIST.
	KindVOD
	// KindNRTLive is a live playlist with a target duration of 2s or less.
	KindNRTLive
)

func (k Kind) String() string {
	switch k {
	case KindVOD:
		return "VOD"
	case KindLive:
		return "LIVE"
	case KindNRTLive:
		return "NRTLIVE"
	default:
		return "UNKNOWN"
	}
}

// Playlist is either a *MasterPlaylist or a *MediaPlaylist.
type Playlist interface {
	Type() Type
	Location() string
	isPlaylist()
}

// MasterPlaylist lists alternative variants of one presentation.
type MasterPlaylist struct {
	URL string
	// Version is the #EXT-X-VERSION value, 0 when unspecified
	Version  int
	Variants []variant.Variant
}

// Type implements Playlist.
func (p *MasterPlaylist) Type() Type { return TypeMaster }

// Location implements Playlist.
func (p *MasterPlaylist) Location() string { return p.URL }

func (p *MasterPlaylist) isPlaylist() {}

// MediaPlaylist lists the segments of one playable stream.
// All durations are in milliseconds.
type MediaPlaylist struct {
	URL        string
	Kind       Kind
	Version    int
	Combined   bool
	AllowCache bool
	// MediaSequence is the sequence number of the first segment present
	MediaSequence  int64
	Segments       []segment.Segment
	TargetDuration int64
	// TotalDuration is the sum of segment durations; only set for VOD
	TotalDuration int64
}

// Type implements Playlist.
func (p *MediaPlaylist) Type() Type { return TypeMedia }

// Location implements Playlist.
func (p *MediaPlaylist) Location() string { return p.URL }

func (p *MediaPlaylist) isPlaylist() {}

// Duration returns the sum of all segment durations regardless of kind.
func (p *MediaPlaylist) Duration() int64 {
	var total int64
	for _, seg := range p.Segments {
		total += seg.Duration
	}
	return total
}

// Clone returns a copy of p that shares no segment storage with it.
func (p *MediaPlaylist) Clone() *MediaPlaylist {
	if p == nil {
		return nil
	}
	c := *p
	c.Segments = append([]segment.Segment(nil), p.Segments...)
	return &c
}
