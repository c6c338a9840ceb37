package playlist

import (
	"bytes"
	"fmt"

	"github.com/grafov/m3u8"
)

// Verify decodes text with a strict third-party HLS decoder and checks that
// it sees the same playlist type and entry count as p.
func Verify(text string, p Playlist) error {
	decoded, listType, err := m3u8.DecodeFrom(bytes.NewBufferString(text), true)
	if err != nil {
		return fmt.Errorf("decode generated playlist: %w", err)
	}

	switch pl := p.(type) {
	case *MasterPlaylist:
		master, ok := decoded.(*m3u8.MasterPlaylist)
		if listType != m3u8.MASTER || !ok {
			return fmt.Errorf("expected master playlist, decoder saw type %d", listType)
		}
		if len(master.Variants) != len(pl.Variants) {
			return fmt.Errorf("decoder saw %d variants, want %d", len(master.Variants), len(pl.Variants))
		}
	case *MediaPlaylist:
		media, ok := decoded.(*m3u8.MediaPlaylist)
		if listType != m3u8.MEDIA || !ok {
			return fmt.Errorf("expected media playlist, decoder saw type %d", listType)
		}
		if int(media.Count()) != len(pl.Segments) {
			return fmt.Errorf("decoder saw %d segments, want %d", media.Count(), len(pl.Segments))
		}
		if media.Closed != (pl.Kind == KindVOD) {
			return fmt.Errorf("decoder end-list state %v does not match kind %s", media.Closed, pl.Kind)
		}
	default:
		return fmt.Errorf("%w: no playlist", ErrValidation)
	}

	return nil
}
