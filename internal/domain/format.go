package domain

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Format list caps applied after ranking. The combined list is
// unbounded; audio-only and video-only are trimmed to keep the info
// response small.
const (
	maxAudioFormats     = 5
	maxVideoOnlyFormats = 3
)

// Stream type labels carried on every descriptor.
const (
	TypeVideoAndAudio = "video+audio"
	TypeAudioOnly     = "audio only"
	TypeVideoOnly     = "video only"
)

// FormatDescriptor is the normalized, display-ready view of one
// retrievable encoding variant.
type FormatDescriptor struct {
	ID              string `json:"formatId"`
	Quality         string `json:"quality"`
	Height          int    `json:"height,omitempty"`
	Width           int    `json:"width,omitempty"`
	Container       string `json:"container"`
	Size            string `json:"size"`
	FPS             int    `json:"fps,omitempty"`
	Type            string `json:"type"`
	Bitrate         string `json:"bitrate"`
	VideoBitrate    string `json:"videoBitrate,omitempty"`
	HasVideo        bool   `json:"hasVideo"`
	HasAudio        bool   `json:"hasAudio"`
	MimeType        string `json:"mimeType"`
	Codec           string `json:"codec"`
	AudioSampleRate int    `json:"audioSampleRate,omitempty"`
}

// Catalog holds the three ranked format buckets plus the flattened view.
type Catalog struct {
	VideoAndAudio []FormatDescriptor `json:"videoAndAudio"`
	AudioOnly     []FormatDescriptor `json:"audioOnly"`
	VideoOnly     []FormatDescriptor `json:"videoOnly"`
	All           []FormatDescriptor `json:"all"`
}

// BuildCatalog splits the raw provider formats into combined,
// audio-only and video-only buckets, ranks each bucket and maps every
// entry to its display form. Pure over its input; missing fields
// degrade to defaults rather than erroring.
func BuildCatalog(rawFormats []RawFormat) Catalog {
	var combined, audioOnly, videoOnly []RawFormat
	for _, f := range rawFormats {
		switch {
		case f.HasVideo && f.HasAudio && f.Container == "mp4":
			combined = append(combined, f)
		case f.HasAudio && !f.HasVideo:
			audioOnly = append(audioOnly, f)
		case f.HasVideo && !f.HasAudio && f.Container == "mp4":
			videoOnly = append(videoOnly, f)
		}
	}

	sortByHeight(combined)
	sortByHeight(videoOnly)
	sort.SliceStable(audioOnly, func(i, j int) bool {
		return audioOnly[i].AudioBitrate > audioOnly[j].AudioBitrate
	})

	if len(audioOnly) > maxAudioFormats {
		audioOnly = audioOnly[:maxAudioFormats]
	}
	if len(videoOnly) > maxVideoOnlyFormats {
		videoOnly = videoOnly[:maxVideoOnlyFormats]
	}

	catalog := Catalog{
		VideoAndAudio: make([]FormatDescriptor, 0, len(combined)),
		AudioOnly:     make([]FormatDescriptor, 0, len(audioOnly)),
		VideoOnly:     make([]FormatDescriptor, 0, len(videoOnly)),
	}
	for _, f := range combined {
		catalog.VideoAndAudio = append(catalog.VideoAndAudio, describeVideo(f, TypeVideoAndAudio))
	}
	for _, f := range audioOnly {
		catalog.AudioOnly = append(catalog.AudioOnly, describeAudio(f))
	}
	for _, f := range videoOnly {
		catalog.VideoOnly = append(catalog.VideoOnly, describeVideo(f, TypeVideoOnly))
	}

	catalog.All = make([]FormatDescriptor, 0, len(catalog.VideoAndAudio)+len(catalog.AudioOnly)+len(catalog.VideoOnly))
	catalog.All = append(catalog.All, catalog.VideoAndAudio...)
	catalog.All = append(catalog.All, catalog.AudioOnly...)
	catalog.All = append(catalog.All, catalog.VideoOnly...)

	return catalog
}

func sortByHeight(formats []RawFormat) {
	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i].Height > formats[j].Height
	})
}

func describeVideo(f RawFormat, streamType string) FormatDescriptor {
	quality := f.QualityLabel
	if quality == "" {
		quality = fmt.Sprintf("%dp", f.Height)
	}

	fps := f.FPS
	if fps == 0 {
		fps = 30
	}

	bitrate := "No Audio"
	hasAudio := false
	if streamType == TypeVideoAndAudio {
		hasAudio = true
		bitrate = "Unknown"
		if f.AudioBitrate > 0 {
			bitrate = strconv.Itoa(f.AudioBitrate)
		}
	}

	videoBitrate := "Unknown"
	if f.Bitrate > 0 {
		videoBitrate = strconv.Itoa(f.Bitrate)
	}

	return FormatDescriptor{
		ID:           f.ID,
		Quality:      quality,
		Height:       f.Height,
		Width:        f.Width,
		Container:    f.Container,
		Size:         describeSize(f.ContentLength),
		FPS:          fps,
		Type:         streamType,
		Bitrate:      bitrate,
		VideoBitrate: videoBitrate,
		HasVideo:     true,
		HasAudio:     hasAudio,
		MimeType:     f.MimeType,
		Codec:        ExtractCodec(f.MimeType),
	}
}

func describeAudio(f RawFormat) FormatDescriptor {
	quality := "Unknown"
	bitrate := "Unknown"
	if f.AudioBitrate > 0 {
		quality = fmt.Sprintf("%dkbps", f.AudioBitrate)
		bitrate = strconv.Itoa(f.AudioBitrate)
	}

	return FormatDescriptor{
		ID:              f.ID,
		Quality:         quality,
		Container:       f.Container,
		Size:            describeSize(f.ContentLength),
		Type:            TypeAudioOnly,
		Bitrate:         bitrate,
		HasVideo:        false,
		HasAudio:        true,
		MimeType:        f.MimeType,
		Codec:           ExtractCodec(f.MimeType),
		AudioSampleRate: f.AudioSampleRate,
	}
}

// describeSize distinguishes an absent length from an explicit zero:
// nil renders "Unknown", zero renders "0 Bytes".
func describeSize(contentLength *int64) string {
	if contentLength == nil {
		return "Unknown"
	}
	return FormatByteSize(*contentLength)
}

var codecPattern = regexp.MustCompile(`codecs="([^"]+)"`)

// ExtractCodec pulls the codecs parameter out of a MIME descriptor.
// When several codecs are listed the first one wins. "Unknown" when
// the descriptor is empty or carries no codecs parameter.
func ExtractCodec(mimeType string) string {
	if mimeType == "" {
		return "Unknown"
	}
	m := codecPattern.FindStringSubmatch(mimeType)
	if m == nil {
		return "Unknown"
	}
	first, _, _ := strings.Cut(m[1], ",")
	return strings.TrimSpace(first)
}

var byteSizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatByteSize renders a byte count on a 1024-based ladder with up
// to two decimal places, e.g. 1536 -> "1.5 KB".
func FormatByteSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}

	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(byteSizeUnits)-1 {
		value /= 1024
		unit++
	}

	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + byteSizeUnits[unit]
}

var unsafeTitleChars = regexp.MustCompile(`[^\w\s-]`)

// SanitizeTitle strips characters unsafe for a filename and caps the
// result at 50 characters.
func SanitizeTitle(title string) string {
	clean := unsafeTitleChars.ReplaceAllString(title, "")
	if len(clean) > 50 {
		clean = clean[:50]
	}
	return clean
}
