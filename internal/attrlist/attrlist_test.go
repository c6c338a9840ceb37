package attrlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_QuotedComma(t *testing.T) {
	attrs := Parse(`BANDWIDTH=100,CODECS="a,b",RESOLUTION=1x1`)

	assert.Equal(t, 3, attrs.Len())
	assert.Equal(t, "100", attrs.Get("BANDWIDTH"))
	assert.Equal(t, "a,b", attrs.Get("CODECS"))
	assert.Equal(t, "1x1", attrs.Get("RESOLUTION"))
	assert.Equal(t, `BANDWIDTH=100,CODECS="a,b",RESOLUTION=1x1`, attrs.Source())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "empty",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "single pair",
			input: "BANDWIDTH=1280000",
			want:  map[string]string{"BANDWIDTH": "1280000"},
		},
		{
			name:  "codecs with space",
			input: `BANDWIDTH=545600,CODECS="avc1.66.30, mp4a.40.2"`,
			want: map[string]string{
				"BANDWIDTH": "545600",
				"CODECS":    "avc1.66.30, mp4a.40.2",
			},
		},
		{
			name:  "equals sign inside value kept verbatim",
			input: `URI="a=b",X=1`,
			want:  map[string]string{"URI": "a=b", "X": "1"},
		},
		{
			name:  "unquoted equals sign after value started",
			input: "KEY=a=b",
			want:  map[string]string{"KEY": "a=b"},
		},
		{
			name:  "unterminated quote consumes rest",
			input: `CODECS="avc1.42e01e,mp4a.40.2,RESOLUTION=1x1`,
			want:  map[string]string{"CODECS": "avc1.42e01e,mp4a.40.2,RESOLUTION=1x1"},
		},
		{
			name:  "trailing comma",
			input: "A=1,",
			want:  map[string]string{"A": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := Parse(tt.input)
			assert.Equal(t, len(tt.want), attrs.Len())
			for k, v := range tt.want {
				assert.Equal(t, v, attrs.Get(k), "key %s", k)
			}
		})
	}
}

func TestAttributes_Int(t *testing.T) {
	attrs := Parse("BANDWIDTH=640000,AVERAGE-BANDWIDTH=abc")

	assert.EqualValues(t, 640000, attrs.Int("BANDWIDTH"))
	assert.EqualValues(t, 0, attrs.Int("AVERAGE-BANDWIDTH"))
	assert.EqualValues(t, 0, attrs.Int("MISSING"))
}
