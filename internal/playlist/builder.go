package playlist

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrValidation is returned by Build when a playlist lacks fields required
// to produce valid output.
var ErrValidation = fmt.Errorf("%w: validation failed", ErrMalformed)

// Build serializes a playlist to HLS text.
//
// The conversion is lossy: the target duration is rounded to whole seconds
// and segment durations are written with millisecond precision.
func Build(p Playlist) (string, error) {
	switch pl := p.(type) {
	case *MasterPlaylist:
		if pl == nil {
			break
		}
		return buildMaster(pl)
	case *MediaPlaylist:
		if pl == nil {
			break
		}
		return buildMedia(pl)
	}
	return "", fmt.Errorf("%w: no playlist", ErrValidation)
}

func buildMaster(p *MasterPlaylist) (string, error) {
	if err := validateMaster(p); err != nil {
		return "", err
	}

	var b strings.Builder

	// HLS master playlist header
	b.WriteString("#EXTM3U\n")
	if p.Version != 0 {
		b.WriteString(fmt.Sprintf("#EXT-X-VERSION:%d\n", p.Version))
	}

	// Write variant streams
	for _, v := range p.Variants {
		b.WriteString("#EXT-X-STREAM-INF:")
		b.WriteString(fmt.Sprintf("BANDWIDTH=%d", v.Bandwidth))

		if v.CodecsRaw != "" {
			b.WriteString(fmt.Sprintf(",CODECS=\"%s\"", v.CodecsRaw))
		}

		if v.Resolution != "" {
			b.WriteString(fmt.Sprintf(",RESOLUTION=%s", v.Resolution))
		}

		b.WriteString("\n")
		b.WriteString(v.URL)
		b.WriteString("\n")
	}

	return b.String(), nil
}

func buildMedia(p *MediaPlaylist) (string, error) {
	if err := validateMedia(p); err != nil {
		return "", err
	}

	var b strings.Builder

	// HLS playlist header
	b.WriteString("#EXTM3U\n")
	if p.Version != 0 {
		b.WriteString(fmt.Sprintf("#EXT-X-VERSION:%d\n", p.Version))
	}
	b.WriteString(fmt.Sprintf("#EXT-X-ALLOW-CACHE:%s\n", yesNo(p.AllowCache)))
	b.WriteString(fmt.Sprintf("#EXT-X-TARGETDURATION:%d\n", int64(math.Round(float64(p.TargetDuration)/1000))))
	if p.MediaSequence != 0 {
		b.WriteString(fmt.Sprintf("#EXT-X-MEDIA-SEQUENCE:%d\n", p.MediaSequence))
	}

	for _, seg := range p.Segments {
		if seg.Discontinuity {
			b.WriteString("#EXT-X-DISCONTINUITY\n")
		}
		b.WriteString(fmt.Sprintf("#EXTINF:%.3f,%s\n", float64(seg.Duration)/1000, seg.Title))
		b.WriteString(seg.URL)
		b.WriteString("\n")
	}

	if p.Kind == KindVOD {
		b.WriteString("#EXT-X-ENDLIST\n")
	}

	return b.String(), nil
}

func validateMaster(p *MasterPlaylist) error {
	if len(p.Variants) == 0 {
		return fmt.Errorf("%w: master playlist has no variants", ErrValidation)
	}

	var errs []error
	for i, v := range p.Variants {
		if v.URL == "" {
			errs = append(errs, fmt.Errorf("variant %d: missing URL", i))
		}
		if v.Bandwidth <= 0 {
			errs = append(errs, fmt.Errorf("variant %d: missing BANDWIDTH", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

func validateMedia(p *MediaPlaylist) error {
	var errs []error
	for i, seg := range p.Segments {
		if seg.URL == "" {
			errs = append(errs, fmt.Errorf("segment %d: missing URL", i))
		}
		if seg.Duration < 0 {
			errs = append(errs, fmt.Errorf("segment %d: negative duration", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
