package domain

import (
	"fmt"
	"strings"
	"time"
)

// Recording represents one ingested audio asset, keyed by its external
// video identifier. FilePath stays empty until the audio download completes.
type Recording struct {
	ID           int64
	VideoID      string
	Title        string
	ThumbnailURL string
	FilePath     string
	CreatedAt    time.Time
}

// NewRecording creates a new Recording instance
func NewRecording(videoID, title, thumbnailURL string, createdAt time.Time) *Recording {
	return &Recording{
		VideoID:      videoID,
		Title:        title,
		ThumbnailURL: thumbnailURL,
		CreatedAt:    createdAt,
	}
}

// HasAudio reports whether the recording's audio file has been downloaded.
func (r *Recording) HasAudio() bool {
	return strings.TrimSpace(r.FilePath) != ""
}

// ValidateRecording validates a Recording instance
func ValidateRecording(r *Recording) error {
	if r == nil {
		return fmt.Errorf("recording cannot be nil")
	}

	if strings.TrimSpace(r.VideoID) == "" {
		return fmt.Errorf("recording VideoID is required")
	}

	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("recording Title is required")
	}

	return nil
}
