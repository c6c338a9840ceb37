package variant

import (
	"strconv"

	"github.com/samber/lo"
)

// Level is a quality level entry suitable for a quality selection menu.
type Level struct {
	Index     int
	Width     int
	Height    int
	Bandwidth int64
	// Name is "<height>p", empty when the variant has no resolution
	Name string
}

// Levels lists the quality levels of variants in playlist order.
func Levels(variants []Variant) []Level {
	return lo.Map(variants, func(v Variant, i int) Level {
		width, height := v.Dimensions()
		level := Level{
			Index:     i,
			Width:     width,
			Height:    height,
			Bandwidth: v.Bandwidth,
		}
		if height > 0 {
			level.Name = strconv.Itoa(height) + "p"
		}
		return level
	})
}
