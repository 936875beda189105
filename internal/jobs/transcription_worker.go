package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/service"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/telemetry"
)

// PendingBatchSize bounds how many recordings one poll picks up. The
// pipeline is strictly sequential anyway; this only limits how long one
// poll cycle can run.
const PendingBatchSize = 5

// PendingRecordingRepository finds downloaded recordings awaiting
// transcription.
type PendingRecordingRepository interface {
	ListPendingTranscription(ctx context.Context, limit int) ([]*domain.Recording, error)
}

// TranscriptionPipeline is the slice of the services the worker drives:
// segmentation first, then chunked or whole-file transcription.
type TranscriptionPipeline interface {
	PrepareChunks(ctx context.Context, videoID string) ([]*domain.Chunk, error)
	ProcessChunked(ctx context.Context, videoID string) (*service.ProcessResult, error)
	ProcessWhole(ctx context.Context, videoID, audioPath string) (*service.ProcessResult, error)
}

// TranscriptionWorker walks pending recordings one at a time through the
// segmentation and transcription pipeline.
type TranscriptionWorker struct {
	repo     PendingRecordingRepository
	pipeline TranscriptionPipeline
}

func NewTranscriptionWorker(repo PendingRecordingRepository, pipeline TranscriptionPipeline) *TranscriptionWorker {
	return &TranscriptionWorker{repo: repo, pipeline: pipeline}
}

// ProcessJobs implements the JobProcessor interface
func (w *TranscriptionWorker) ProcessJobs(ctx context.Context) error {
	pending, err := w.repo.ListPendingTranscription(ctx, PendingBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending recordings: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	log.Printf("Processing %d pending recordings", len(pending))

	for _, rec := range pending {
		// One transaction per recording; polls without work stay invisible.
		txCtx, tx := telemetry.StartTransaction(ctx, "transcription.worker", "queue.task")
		if err := w.processRecording(txCtx, rec); err != nil {
			log.Printf("Error processing recording %s: %v", rec.VideoID, err)
			tx.SetError(err)
			telemetry.CaptureError(txCtx, err)
		}
		tx.End()
	}
	return nil
}

func (w *TranscriptionWorker) processRecording(ctx context.Context, rec *domain.Recording) error {
	log.Printf("Processing recording %s", rec.VideoID)

	chunks, err := w.pipeline.PrepareChunks(ctx, rec.VideoID)
	if err != nil {
		return fmt.Errorf("segmentation failed: %w", err)
	}

	var result *service.ProcessResult
	if len(chunks) > 0 {
		result, err = w.pipeline.ProcessChunked(ctx, rec.VideoID)
	} else {
		result, err = w.pipeline.ProcessWhole(ctx, rec.VideoID, rec.FilePath)
	}
	if err != nil {
		return err
	}

	log.Printf("Recording %s finished with status %s (%d/%d steps)",
		rec.VideoID, result.Status, result.StepsCompleted, result.TotalSteps)
	return nil
}
