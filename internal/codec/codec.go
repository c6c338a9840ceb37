// Package codec decodes RFC 6381 codec identifiers (the CODECS attribute of
// a variant stream) into human readable profile and level metadata.
package codec

import (
	"strconv"
	"strings"
)

// Codec names.
const (
	AVC = "AVC"
	AAC = "AAC"
	MP3 = "MP3"
)

// H.264 profile names.
const (
	ProfileBase = "Base"
	ProfileMain = "Main"
	ProfileHigh = "High"
)

// MPEG-4 audio profile names.
const (
	ProfileAACLC   = "AAC-LC"
	ProfileHEAAC   = "HE-AAC"
	ProfileHEAACv2 = "HE-AAC v2"
	ProfileMP3     = "MP3"
)

// VideoCodec describes the video track of a variant.
type VideoCodec struct {
	Codec     string
	Profile   string
	ProfileID int
	Level     string
}

// AudioCodec describes the audio track of a variant.
type AudioCodec struct {
	Codec      string
	Profile    string
	ObjectType int
}

type prefix int

const (
	prefixUnknown prefix = iota
	prefixAVC1
	prefixMP4A
)

func classify(token string) (prefix, string) {
	name, rest, _ := strings.Cut(token, ".")
	switch strings.ToLower(name) {
	case "avc1":
		return prefixAVC1, rest
	case "mp4a":
		return prefixMP4A, rest
	default:
		return prefixUnknown, rest
	}
}

var videoProfiles = map[int]string{
	66:  ProfileBase,
	77:  ProfileMain,
	100: ProfileHigh,
}

// level_idc values from ITU-T H.264 Table A-1.
var videoLevels = map[int]string{
	9:  "1b",
	10: "1.0",
	11: "1.1",
	12: "1.2",
	13: "1.3",
	20: "2.0",
	21: "2.1",
	22: "2.2",
	30: "3.0",
	31: "3.1",
	32: "3.2",
	40: "4.0",
	41: "4.1",
	42: "4.2",
	50: "5.0",
	51: "5.1",
	52: "5.2",
	60: "6.0",
	61: "6.1",
	62: "6.2",
}

var audioProfiles = map[int]string{
	2:  ProfileAACLC,
	5:  ProfileHEAAC,
	29: ProfileHEAACv2,
	34: ProfileMP3,
}

// Decode parses a comma separated CODECS value. Unrecognized tokens are
// ignored; when a media type appears more than once the last token wins.
func Decode(codecs string) (VideoCodec, AudioCodec) {
	var (
		video VideoCodec
		audio AudioCodec
	)

	for _, token := range strings.Split(codecs, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		switch kind, rest := classify(token); kind {
		case prefixAVC1:
			video = decodeAVC(rest)
		case prefixMP4A:
			audio = decodeMP4A(rest)
		case prefixUnknown:
		}
	}

	return video, audio
}

// decodeAVC handles both avc1.PPCCLL (hex) and the legacy avc1.PPP.LL
// (decimal) forms.
func decodeAVC(suffix string) VideoCodec {
	video := VideoCodec{Codec: AVC}

	var profileIdc, levelIdc int
	if p, l, ok := strings.Cut(suffix, "."); ok {
		profileIdc = atoi(p)
		levelIdc = atoi(l)
	} else if len(suffix) == 6 {
		profileIdc = hexByte(suffix[0:2])
		levelIdc = hexByte(suffix[4:6])
	}

	if name, ok := videoProfiles[profileIdc]; ok {
		video.Profile = name
		video.ProfileID = profileIdc
	}
	video.Level = videoLevels[levelIdc]

	return video
}

// decodeMP4A reads the audio object type from mp4a.OO.A.
func decodeMP4A(suffix string) AudioCodec {
	audio := AudioCodec{Codec: AAC}

	parts := strings.Split(suffix, ".")
	objectType := atoi(parts[len(parts)-1])
	if len(parts) < 2 {
		objectType = 0
	}

	if name, ok := audioProfiles[objectType]; ok {
		audio.Profile = name
		audio.ObjectType = objectType
	}
	if audio.Profile == ProfileMP3 {
		audio.Codec = MP3
	}

	return audio
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func hexByte(s string) int {
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return int(n)
}
