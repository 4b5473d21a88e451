package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/internal/domain"
	"github.com/yourusername/vidstream-go/pkg/events"
)

// Publisher derives percent, speed and ETA from raw byte-progress
// samples, keeps the session snapshot current and emits structured
// events to the owning subscriber. Delivery is fire-and-forget; a
// slow subscriber never stalls the stream.
type Publisher struct {
	sink   events.Sink
	logger *zap.Logger
}

// NewPublisher creates a progress publisher backed by the given sink
func NewPublisher(sink events.Sink, logger *zap.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logger}
}

type stagePayload struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

type startedPayload struct {
	DownloadID string `json:"downloadId"`
	Filename   string `json:"filename"`
	Stage      string `json:"stage"`
}

type progressPayload struct {
	DownloadID string `json:"downloadId"`
	Percent    int    `json:"percent"`
	Downloaded string `json:"downloaded"`
	Total      string `json:"total"`
	Speed      string `json:"speed"`
	ETA        string `json:"eta"`
}

type completePayload struct {
	DownloadID string `json:"downloadId"`
	Message    string `json:"message"`
}

type errorPayload struct {
	DownloadID string `json:"downloadId"`
	Error      string `json:"error"`
}

// Stage emits an info-phase progress event to a subscriber, e.g. while
// a metadata fetch is running.
func (p *Publisher) Stage(subscriberID, stage, message string, percent int) {
	if subscriberID == "" {
		return
	}
	p.sink.Publish(subscriberID, events.Event{
		Type: events.TypeProgress,
		Data: stagePayload{Stage: stage, Message: message, Percent: percent},
	})
}

// Started announces a new download session to its subscriber, carrying
// the resolved output filename. Emitted before the first byte arrives.
func (p *Publisher) Started(session *domain.Session, filename string) {
	p.sink.Publish(session.SubscriberID, events.Event{
		Type: events.TypeDownloadStarted,
		Data: startedPayload{
			DownloadID: session.ID,
			Filename:   filename,
			Stage:      "initializing",
		},
	})
}

// OnProgress records one byte-progress sample: it computes the derived
// fields, updates the session snapshot and publishes a progress event.
// Called once per chunk, so it stays off I/O and never blocks.
func (p *Publisher) OnProgress(session *domain.Session, chunkLen, downloaded, total int64, startedAt time.Time) {
	percent := 0
	if total > 0 {
		percent = int(downloaded * 100 / total)
	}

	speed := computeSpeed(downloaded, startedAt)
	eta := formatETA(downloaded, total, speed)

	session.MarkDownloading(domain.Progress{
		Downloaded: downloaded,
		Total:      total,
		Percent:    percent,
		Speed:      speed,
		ETA:        eta,
	})

	p.sink.Publish(session.SubscriberID, events.Event{
		Type: events.TypeDownloadProgress,
		Data: progressPayload{
			DownloadID: session.ID,
			Percent:    percent,
			Downloaded: domain.FormatByteSize(downloaded),
			Total:      domain.FormatByteSize(total),
			Speed:      domain.FormatByteSize(int64(speed)) + "/s",
			ETA:        eta,
		},
	})
}

// Completed publishes the terminal success event for a session.
func (p *Publisher) Completed(session *domain.Session) {
	p.sink.Publish(session.SubscriberID, events.Event{
		Type: events.TypeDownloadComplete,
		Data: completePayload{
			DownloadID: session.ID,
			Message:    "Download completed successfully!",
		},
	})
}

// Failed publishes the terminal error event for a session.
func (p *Publisher) Failed(session *domain.Session, err error) {
	p.sink.Publish(session.SubscriberID, events.Event{
		Type: events.TypeDownloadError,
		Data: errorPayload{
			DownloadID: session.ID,
			Error:      err.Error(),
		},
	})
}

// computeSpeed returns bytes per second since the transfer started.
// Zero when no time has elapsed yet.
func computeSpeed(downloaded int64, startedAt time.Time) float64 {
	elapsed := time.Since(startedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(downloaded) / elapsed
}

// formatETA renders the remaining transfer time as "Ns", "Mm Ss" or
// "Hh Mm". "Unknown" while the speed is still zero.
func formatETA(downloaded, total int64, speed float64) string {
	if speed == 0 {
		return "Unknown"
	}

	remaining := total - downloaded
	if remaining < 0 {
		remaining = 0
	}
	seconds := int64(float64(remaining) / speed)

	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}
