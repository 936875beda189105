package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/storage"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/youtube"
)

// VideoSource fetches metadata and audio for a remote video.
type VideoSource interface {
	FetchMetadata(ctx context.Context, videoID string) (*youtube.Metadata, error)
	DownloadAudio(ctx context.Context, videoID, destDir string) (string, error)
}

// AudioArchive is an optional object-store backup for downloaded source
// audio. Chunk files always stay on the local file system.
type AudioArchive interface {
	Upload(ctx context.Context, key, filePath string) error
	Head(ctx context.Context, key string) (*storage.ObjectMetadata, error)
	Delete(ctx context.Context, key string) error
}

// RecordingService handles ingestion: metadata, audio download, and the
// plan-then-materialize segmentation pipeline.
type RecordingService struct {
	source       VideoSource
	recordings   RecordingRepositoryInterface
	planner      *PlannerService
	materializer *MaterializerService
	archive      AudioArchive
	audioDir     string
}

func NewRecordingService(
	source VideoSource,
	recordings RecordingRepositoryInterface,
	planner *PlannerService,
	materializer *MaterializerService,
	audioDir string,
) *RecordingService {
	return &RecordingService{
		source:       source,
		recordings:   recordings,
		planner:      planner,
		materializer: materializer,
		audioDir:     audioDir,
	}
}

// WithArchive enables best-effort source-audio backup to an object store.
func (s *RecordingService) WithArchive(archive AudioArchive) *RecordingService {
	s.archive = archive
	return s
}

// Ingest registers a recording from a video URL or bare id, fetching its
// metadata. Re-ingesting a known video refreshes metadata without touching
// a previously downloaded audio file.
func (s *RecordingService) Ingest(ctx context.Context, url string) (*domain.Recording, error) {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid video URL", err)
	}

	meta, err := s.source.FetchMetadata(ctx, videoID)
	if err != nil {
		return nil, err
	}

	rec := &domain.Recording{
		VideoID:      videoID,
		Title:        meta.Title,
		ThumbnailURL: meta.ThumbnailURL,
		CreatedAt:    time.Now().UTC(),
	}
	if err := domain.ValidateRecording(rec); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid recording", err)
	}
	if err := s.recordings.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Download fetches the recording's audio to local storage and records the
// file path. The optional archive upload is best-effort.
func (s *RecordingService) Download(ctx context.Context, videoID string) (*domain.Recording, error) {
	rec, err := s.recordings.GetByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	filePath, err := s.source.DownloadAudio(ctx, videoID, s.audioDir)
	if err != nil {
		return nil, err
	}
	if err := s.recordings.UpdateFilePath(ctx, videoID, filePath); err != nil {
		return nil, err
	}
	rec.FilePath = filePath

	if s.archive != nil {
		s.archiveUpload(ctx, videoID, filePath)
	}
	return rec, nil
}

// archiveUpload backs up the source audio, skipping the upload when the
// archive already holds an object of the same size. Best-effort throughout.
func (s *RecordingService) archiveUpload(ctx context.Context, videoID, filePath string) {
	key := archiveKey(videoID)
	if info, err := os.Stat(filePath); err == nil {
		if meta, headErr := s.archive.Head(ctx, key); headErr == nil && meta != nil && meta.ContentLength == info.Size() {
			return
		}
	}
	if err := s.archive.Upload(ctx, key, filePath); err != nil {
		log.Printf("recording: archive upload for %s failed: %v", videoID, err)
	}
}

// PrepareChunks runs the segmentation pipeline for a downloaded recording:
// decide whether to split, detect silence, compute the plan, and materialize
// chunk files and rows. Recordings under the size ceiling yield no chunks
// and are transcribed whole.
func (s *RecordingService) PrepareChunks(ctx context.Context, videoID string) ([]*domain.Chunk, error) {
	rec, err := s.recordings.GetByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !rec.HasAudio() {
		return nil, domain.ErrAudioNotDownloaded
	}

	if !s.planner.ShouldSegment(rec.FilePath) {
		return nil, nil
	}

	info, err := os.Stat(rec.FilePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", rec.FilePath, err)
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)

	duration, err := s.materializer.extractor.ProbeDuration(ctx, rec.FilePath)
	if err != nil {
		return nil, err
	}

	silencePoints := s.planner.DetectSilencePoints(ctx, rec.FilePath)
	planPoints, err := s.planner.CalculatePlanPoints(duration, sizeMB, silencePoints)
	if err != nil {
		return nil, err
	}

	return s.materializer.CreateChunks(ctx, rec.FilePath, planPoints, videoID)
}

func (s *RecordingService) Get(ctx context.Context, videoID string) (*domain.Recording, error) {
	return s.recordings.GetByVideoID(ctx, videoID)
}

func (s *RecordingService) List(ctx context.Context) ([]*domain.Recording, error) {
	return s.recordings.List(ctx)
}

// Delete removes the recording, its chunk files and rows, its local audio
// file, and its archived copy. Chunk and transcript rows cascade from the
// recording row; file cleanup failures are logged, never escalated.
func (s *RecordingService) Delete(ctx context.Context, videoID string) error {
	rec, err := s.recordings.GetByVideoID(ctx, videoID)
	if err != nil {
		return err
	}

	if _, err := s.materializer.DeleteAll(ctx, videoID); err != nil {
		return err
	}
	if err := s.recordings.Delete(ctx, videoID); err != nil {
		return err
	}

	if rec.HasAudio() {
		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("recording: removing audio %s failed: %v", rec.FilePath, err)
		}
	}
	if s.archive != nil {
		if err := s.archive.Delete(ctx, archiveKey(videoID)); err != nil {
			log.Printf("recording: archive delete for %s failed: %v", videoID, err)
		}
	}
	return nil
}

func archiveKey(videoID string) string {
	return "audio/" + videoID + ".m4a"
}
