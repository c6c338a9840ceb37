// Package parser provides HLS playlist parsing functionality.
package parser

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/agleyzer/m3u8kit/internal/attrlist"
	"github.com/agleyzer/m3u8kit/internal/codec"
	"github.com/agleyzer/m3u8kit/internal/playlist"
	"github.com/agleyzer/m3u8kit/internal/segment"
	"github.com/agleyzer/m3u8kit/internal/variant"
)

// ErrMissingHeader is returned when the first non-blank line is not #EXTM3U.
var ErrMissingHeader = fmt.Errorf("%w: missing #EXTM3U header", playlist.ErrMalformed)

const (
	headerTag    = "#EXTM3U"
	tagPrefix    = "#EXT"
	streamInfTag = "#EXT-X-STREAM-INF"
)

type directive int

const (
	directiveUnknown directive = iota
	directiveHeader
	directiveVersion
	directiveStreamInf
	directiveTargetDuration
	directiveMediaSequence
	directiveAllowCache
	directiveCombined
	directiveEndList
	directiveDiscontinuity
	directiveInf
)

func lookupDirective(key string) directive {
	switch key {
	case headerTag:
		return directiveHeader
	case "#EXT-X-VERSION":
		return directiveVersion
	case streamInfTag:
		return directiveStreamInf
	case "#EXT-X-TARGETDURATION":
		return directiveTargetDuration
	case "#EXT-X-MEDIA-SEQUENCE":
		return directiveMediaSequence
	case "#EXT-X-ALLOW-CACHE":
		return directiveAllowCache
	case "#EXT-X-COMBINED":
		return directiveCombined
	case "#EXT-X-ENDLIST":
		return directiveEndList
	case "#EXT-X-DISCONTINUITY":
		return directiveDiscontinuity
	case "#EXTINF":
		return directiveInf
	default:
		return directiveUnknown
	}
}

// pendingSegment holds the #EXTINF values waiting for their URI line.
type pendingSegment struct {
	duration int64
	title    string
}

// parseState is the running state of the structural pass.
type parseState struct {
	baseURL string

	master *playlist.MasterPlaylist
	media  *playlist.MediaPlaylist

	pendingVariant       attrlist.Attributes
	pendingSegment       *pendingSegment
	pendingDiscontinuity bool

	// elapsed is the cumulative duration of finalized segments
	elapsed int64
}

// Parse parses HLS playlist text fetched from url. url is used to resolve
// relative references and may be empty. Only a missing #EXTM3U header is an
// error; unknown tags and malformed numbers are tolerated.
func Parse(text, url string) (playlist.Playlist, error) {
	lines := splitLines(text)

	if !hasHeader(lines) {
		return nil, ErrMissingHeader
	}

	st := &parseState{baseURL: url}
	if isMaster(lines) {
		st.master = &playlist.MasterPlaylist{URL: url}
	} else {
		st.media = &playlist.MediaPlaylist{URL: url, Kind: playlist.KindLive}
	}

	for _, line := range lines {
		st.step(strings.TrimSpace(line))
	}

	if st.master != nil {
		return st.master, nil
	}
	return st.finishMedia(), nil
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader, url string) (playlist.Playlist, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	return Parse(string(data), url)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func hasHeader(lines []string) bool {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return line == headerTag
	}
	return false
}

func isMaster(lines []string) bool {
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), streamInfTag) {
			return true
		}
	}
	return false
}

// step consumes one trimmed line.
func (st *parseState) step(line string) {
	switch {
	case line == "":
	case strings.HasPrefix(line, tagPrefix):
		key, value, _ := strings.Cut(line, ":")
		st.directive(lookupDirective(key), value)
	case strings.HasPrefix(line, "#"):
		// comment
	default:
		st.uri(line)
	}
}

func (st *parseState) directive(d directive, value string) {
	if st.master != nil {
		switch d {
		case directiveVersion:
			st.master.Version = int(parseInt(value))
		case directiveStreamInf:
			st.pendingVariant = attrlist.Parse(value)
		default:
		}
		return
	}

	p := st.media
	switch d {
	case directiveVersion:
		p.Version = int(parseInt(value))
	case directiveEndList:
		p.Kind = playlist.KindVOD
	case directiveCombined:
		p.Combined = isYes(value)
	case directiveAllowCache:
		p.AllowCache = isYes(value)
	case directiveTargetDuration:
		p.TargetDuration = secondsToMillis(value)
	case directiveMediaSequence:
		p.MediaSequence = parseInt(value)
	case directiveInf:
		duration, title, _ := strings.Cut(value, ",")
		st.pendingSegment = &pendingSegment{
			duration: secondsToMillis(duration),
			title:    title,
		}
	case directiveDiscontinuity:
		st.pendingDiscontinuity = true
	case directiveHeader, directiveStreamInf, directiveUnknown:
	}
}

func (st *parseState) uri(line string) {
	if st.master != nil {
		if st.pendingVariant == nil {
			return
		}
		st.master.Variants = append(st.master.Variants, newVariant(st.pendingVariant, ResolveURL(line, st.baseURL)))
		st.pendingVariant = nil
		return
	}

	if st.pendingSegment == nil {
		return
	}

	p := st.media
	seg := segment.Segment{
		ID:       p.MediaSequence + int64(len(p.Segments)),
		URL:      ResolveURL(line, st.baseURL),
		Duration: st.pendingSegment.duration,
		Title:    st.pendingSegment.title,
		Range: segment.Range{
			Start: st.elapsed,
			End:   st.elapsed + st.pendingSegment.duration,
		},
		Discontinuity: st.pendingDiscontinuity,
	}
	p.Segments = append(p.Segments, seg)
	st.elapsed = seg.Range.End
	st.pendingSegment = nil
	st.pendingDiscontinuity = false
}

func (st *parseState) finishMedia() *playlist.MediaPlaylist {
	p := st.media
	switch {
	case p.Kind == playlist.KindVOD:
		p.TotalDuration = st.elapsed
	case p.Kind == playlist.KindLive && p.TargetDuration <= playlist.NRTLiveThreshold:
		p.Kind = playlist.KindNRTLive
	}
	return p
}

func newVariant(attrs attrlist.Attributes, url string) variant.Variant {
	codecs := attrs.Get("CODECS")
	video, audio := codec.Decode(codecs)

	return variant.Variant{
		URL:        url,
		RawInfo:    attrs.Source(),
		CodecsRaw:  codecs,
		Bandwidth:  attrs.Int("BANDWIDTH"),
		Resolution: attrs.Get("RESOLUTION"),
		Video:      video,
		Audio:      audio,
	}
}

func isYes(value string) bool {
	return strings.TrimSpace(value) == "YES"
}

func parseInt(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// secondsToMillis converts a decimal seconds value to whole milliseconds,
// truncating. The small bias keeps values such as 4.35 from truncating to
// 4349 through binary rounding. Malformed or negative input yields 0.
func secondsToMillis(value string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	ms := math.Floor(f*1000 + 1e-6)
	// Values that do not fit in int64 milliseconds are malformed.
	if ms >= float64(math.MaxInt64) {
		return 0
	}
	return int64(ms)
}
