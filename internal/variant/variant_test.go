package variant

import (
	"regexp"
	"testing"

	"github.com/agleyzer/m3u8kit/internal/codec"
	"github.com/stretchr/testify/assert"
)

func newVariant(video, audio string) Variant {
	return Variant{
		Video: codec.VideoCodec{Profile: video},
		Audio: codec.AudioCodec{Profile: audio},
	}
}

func TestSelectDefault(t *testing.T) {
	tests := []struct {
		name     string
		variants []Variant
		want     int
	}{
		{
			name:     "second variant is baseline AAC",
			variants: []Variant{newVariant("High", "MP3"), newVariant("Base", "AAC-LC")},
			want:     1,
		},
		{
			name:     "high profile only",
			variants: []Variant{newVariant("High", "AAC-LC")},
			want:     NoMatch,
		},
		{
			name:     "first match wins",
			variants: []Variant{newVariant("Base", "HE-AAC"), newVariant("Base", "AAC-LC")},
			want:     0,
		},
		{
			name:     "empty",
			variants: nil,
			want:     NoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectDefault(tt.variants))
		})
	}
}

func TestSelect_CustomPredicates(t *testing.T) {
	variants := []Variant{
		newVariant("Base", "AAC-LC"),
		newVariant("Main", "HE-AAC"),
		newVariant("High", "HE-AAC v2"),
	}

	assert.Equal(t, 2, Select(variants, Pattern(regexp.MustCompile("^High$")), nil))
	assert.Equal(t, 1, Select(variants, Pattern(regexp.MustCompile("Main|High")), Contains("HE-AAC")))
	assert.Equal(t, 0, Select(variants, nil, nil))
	assert.Equal(t, NoMatch, Select(variants, Equals("Main"), Equals("AAC-LC")))
}

func TestLevels(t *testing.T) {
	variants := []Variant{
		{Resolution: "1280x720", Bandwidth: 2560000},
		{Resolution: "", Bandwidth: 64000},
		{Resolution: "432X768", Bandwidth: 800000},
		{Resolution: "bogus", Bandwidth: 1},
	}

	levels := Levels(variants)

	assert.Equal(t, []Level{
		{Index: 0, Width: 1280, Height: 720, Bandwidth: 2560000, Name: "720p"},
		{Index: 1, Bandwidth: 64000},
		{Index: 2, Width: 432, Height: 768, Bandwidth: 800000, Name: "768p"},
		{Index: 3, Bandwidth: 1},
	}, levels)
}
