package domain

import (
	"context"
	"io"
)

// RawFormat is one encoding variant exactly as reported by the
// extraction provider, before any normalization.
type RawFormat struct {
	ID              string `json:"formatId"`
	HasVideo        bool   `json:"hasVideo"`
	HasAudio        bool   `json:"hasAudio"`
	Container       string `json:"container"`
	MimeType        string `json:"mimeType"`
	QualityLabel    string `json:"qualityLabel"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	FPS             int    `json:"fps"`
	Bitrate         int    `json:"bitrate"`
	AudioBitrate    int    `json:"audioBitrate"`
	AudioSampleRate int    `json:"audioSampleRate"`
	// ContentLength is nil when the provider does not declare a byte
	// length. An explicit zero is a different case and kept as such.
	ContentLength *int64 `json:"contentLength"`
}

// MediaStream is an open byte stream for a selected format. TotalBytes
// returns the declared stream length, or 0 when unknown.
type MediaStream interface {
	io.ReadCloser
	TotalBytes() int64
}

// Provider is the extraction boundary: it resolves video metadata and
// opens byte streams for chosen formats. Implementations live in
// internal/infrastructure.
type Provider interface {
	// GetMetadata fetches video details and the raw format list. The
	// call is bounded by the implementation's configured timeout.
	GetMetadata(ctx context.Context, url string) (*VideoInfo, error)

	// OpenStream opens the byte stream for the given format id.
	OpenStream(ctx context.Context, url, formatID string) (MediaStream, error)
}
