package domain

import (
	"fmt"
	"strings"
	"time"
)

// GenerationStatus represents the status of a question generation run
type GenerationStatus string

const (
	GenerationStatusPending   GenerationStatus = "pending"
	GenerationStatusRunning   GenerationStatus = "running"
	GenerationStatusCompleted GenerationStatus = "completed"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// Generation represents one question-generation run over a transcript.
type Generation struct {
	ID            int64
	VideoID       string
	TranscriptID  int64
	Provider      string
	Model         string
	QuestionCount int
	Status        GenerationStatus
	Error         string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// Question is a single generated question with its expected answer.
type Question struct {
	ID           int64
	GenerationID int64
	VideoID      string
	Text         string
	Answer       string
	CreatedAt    time.Time
}

// ValidateGeneration validates a Generation instance
func ValidateGeneration(g *Generation) error {
	if g == nil {
		return fmt.Errorf("generation cannot be nil")
	}

	if strings.TrimSpace(g.VideoID) == "" {
		return fmt.Errorf("generation VideoID is required")
	}

	if g.QuestionCount <= 0 {
		return fmt.Errorf("generation QuestionCount must be positive")
	}

	if !isValidGenerationStatus(g.Status) {
		return fmt.Errorf("generation Status is invalid: %s", g.Status)
	}

	return nil
}

func isValidGenerationStatus(s GenerationStatus) bool {
	switch s {
	case GenerationStatusPending, GenerationStatusRunning,
		GenerationStatusCompleted, GenerationStatusFailed:
		return true
	}
	return false
}
