package domain

import (
	"fmt"
	"math"
	"time"
)

// Chunk is one contiguous, time-bounded segment of a recording's audio.
// Chunks are created during materialization and never mutated afterwards.
type Chunk struct {
	ID         int64
	VideoID    string
	ChunkIndex int
	FilePath   string
	StartTime  float64
	EndTime    float64
	Duration   float64
	FileSize   int64
	CreatedAt  time.Time
}

// SizeMB returns the chunk's file size in megabytes.
func (c *Chunk) SizeMB() float64 {
	return float64(c.FileSize) / (1024 * 1024)
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.VideoID == "" {
		return fmt.Errorf("chunk VideoID is required")
	}

	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk ChunkIndex cannot be negative")
	}

	if c.FilePath == "" {
		return fmt.Errorf("chunk FilePath is required")
	}

	if c.StartTime < 0 || c.EndTime < 0 {
		return fmt.Errorf("chunk timestamps cannot be negative")
	}

	if c.EndTime <= c.StartTime {
		return fmt.Errorf("chunk EndTime %.3f must be after StartTime %.3f", c.EndTime, c.StartTime)
	}

	if math.Abs((c.EndTime-c.StartTime)-c.Duration) > 1e-6 {
		return fmt.Errorf("chunk Duration %.3f does not match EndTime-StartTime", c.Duration)
	}

	if c.FileSize < 0 {
		return fmt.Errorf("chunk FileSize cannot be negative")
	}

	return nil
}

// ValidateChunkSequence checks the gap-free ordering invariant across a
// recording's chunk set: chunk 0 starts at zero, consecutive chunks share
// a boundary, and the last chunk ends at totalDuration.
func ValidateChunkSequence(chunks []*Chunk, totalDuration float64) error {
	if len(chunks) == 0 {
		return nil
	}

	const tolerance = 1e-3

	if math.Abs(chunks[0].StartTime) > tolerance {
		return fmt.Errorf("first chunk must start at 0, got %.3f", chunks[0].StartTime)
	}

	for i, c := range chunks {
		if c.ChunkIndex != i {
			return fmt.Errorf("chunk at position %d has index %d", i, c.ChunkIndex)
		}
		if i > 0 && math.Abs(chunks[i-1].EndTime-c.StartTime) > tolerance {
			return fmt.Errorf("gap between chunk %d end %.3f and chunk %d start %.3f",
				i-1, chunks[i-1].EndTime, i, c.StartTime)
		}
	}

	last := chunks[len(chunks)-1]
	if math.Abs(last.EndTime-totalDuration) > tolerance {
		return fmt.Errorf("last chunk ends at %.3f, recording duration is %.3f", last.EndTime, totalDuration)
	}

	return nil
}
