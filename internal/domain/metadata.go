package domain

import "fmt"

// Author identifies the channel that published a video.
type Author struct {
	Name       string `json:"name"`
	ChannelURL string `json:"channel_url"`
}

// Thumbnail is one preview image variant reported by the provider.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// VideoStats holds aggregate engagement numbers.
type VideoStats struct {
	Likes  int64   `json:"likes"`
	Rating float64 `json:"rating"`
}

// VideoMetadata is the normalized snapshot returned to info callers.
// It is built once per request and never retained by the core.
type VideoMetadata struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      Author     `json:"author"`
	Duration    int        `json:"duration"`
	Thumbnail   string     `json:"thumbnail"`
	Description string     `json:"description"`
	ViewCount   int64      `json:"viewCount"`
	UploadDate  string     `json:"uploadDate"`
	Category    string     `json:"category"`
	Stats       VideoStats `json:"stats"`
}

// VideoInfo is the raw result of a provider metadata fetch: the video
// details as reported plus the unprocessed format list.
type VideoInfo struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Author        Author      `json:"author"`
	Duration      int         `json:"duration"`
	Thumbnails    []Thumbnail `json:"thumbnails"`
	Description   string      `json:"description"`
	ViewCount     int64       `json:"viewCount"`
	UploadDate    string      `json:"uploadDate"`
	Category      string      `json:"category"`
	Likes         int64       `json:"likes"`
	AverageRating float64     `json:"averageRating"`
	Formats       []RawFormat `json:"formats"`
}

const maxDescriptionLen = 500

// Metadata builds the caller-facing snapshot from the raw provider info.
func (v *VideoInfo) Metadata() VideoMetadata {
	desc := v.Description
	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen] + "..."
	}

	return VideoMetadata{
		ID:          v.ID,
		Title:       v.Title,
		Author:      v.Author,
		Duration:    v.Duration,
		Thumbnail:   BestThumbnail(v.Thumbnails),
		Description: desc,
		ViewCount:   v.ViewCount,
		UploadDate:  v.UploadDate,
		Category:    v.Category,
		Stats: VideoStats{
			Likes:  v.Likes,
			Rating: v.AverageRating,
		},
	}
}

// FindFormat looks up a raw format by its identifier. Wraps
// ErrFormatNotFound when the id is not present in this snapshot.
func (v *VideoInfo) FindFormat(formatID string) (*RawFormat, error) {
	for i := range v.Formats {
		if v.Formats[i].ID == formatID {
			return &v.Formats[i], nil
		}
	}
	return nil, fmt.Errorf("format %s: %w", formatID, ErrFormatNotFound)
}

// BestThumbnail picks the first thumbnail at least 480px wide, falling
// back to the first entry. Empty string when the list is empty.
func BestThumbnail(thumbnails []Thumbnail) string {
	if len(thumbnails) == 0 {
		return ""
	}
	for _, t := range thumbnails {
		if t.Width >= 480 {
			return t.URL
		}
	}
	return thumbnails[0].URL
}
