package variant

import (
	"regexp"
	"strings"
)

// NoMatch is returned by Select when no variant satisfies the predicates.
const NoMatch = 255

// Predicate reports whether a codec profile name is playable.
type Predicate func(profile string) bool

// Equals matches a profile exactly.
func Equals(want string) Predicate {
	return func(profile string) bool { return profile == want }
}

// Contains matches profiles containing substr.
func Contains(substr string) Predicate {
	return func(profile string) bool { return strings.Contains(profile, substr) }
}

// Pattern matches profiles against a regular expression.
func Pattern(re *regexp.Regexp) Predicate {
	return func(profile string) bool { return re.MatchString(profile) }
}

// Default selection policy: Baseline H.264 with AAC audio.
var (
	DefaultVideo = Equals("Base")
	DefaultAudio = Contains("AAC")
)

// Select returns the index of the first variant whose video profile
// satisfies video and whose audio profile satisfies audio, or NoMatch.
// A nil predicate accepts every profile.
func Select(variants []Variant, video, audio Predicate) int {
	for i, v := range variants {
		if matches(video, v.Video.Profile) && matches(audio, v.Audio.Profile) {
			return i
		}
	}
	return NoMatch
}

// SelectDefault applies DefaultVideo and DefaultAudio.
func SelectDefault(variants []Variant) int {
	return Select(variants, DefaultVideo, DefaultAudio)
}

func matches(p Predicate, profile string) bool {
	return p == nil || p(profile)
}
