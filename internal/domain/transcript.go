package domain

import (
	"fmt"
	"time"
)

// Transcript is the textual result for one recording: exactly one complete
// text plus one embedding over that text once processing finishes. When a
// recording was chunked, the transcript owns one ChunkTranscript per
// successfully processed chunk.
//
// A transcript is created as a placeholder (empty text, nil embedding) at
// the start of chunked processing so child rows have a stable parent id,
// then updated in place after aggregation.
type Transcript struct {
	ID        int64
	VideoID   string
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// ChunkTranscript is the text and embedding produced for one specific chunk.
// At most one ChunkTranscript exists per chunk; rows are never mutated.
type ChunkTranscript struct {
	ID           int64
	TranscriptID int64
	ChunkID      int64
	Text         string
	Embedding    []float32
	CreatedAt    time.Time
}

// ValidateChunkTranscript validates a ChunkTranscript instance
func ValidateChunkTranscript(ct *ChunkTranscript) error {
	if ct == nil {
		return fmt.Errorf("chunk transcript cannot be nil")
	}

	if ct.TranscriptID == 0 {
		return fmt.Errorf("chunk transcript TranscriptID is required")
	}

	if ct.ChunkID == 0 {
		return fmt.Errorf("chunk transcript ChunkID is required")
	}

	if ct.Text == "" {
		return fmt.Errorf("chunk transcript Text is required")
	}

	return nil
}
