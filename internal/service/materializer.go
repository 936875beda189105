package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/telemetry"
)

// SegmentExtractor is the slice of the media layer the materializer needs.
type SegmentExtractor interface {
	ProbeDuration(ctx context.Context, audioPath string) (float64, error)
	ExtractSegment(ctx context.Context, inputPath, outputPath string, start, end float64) error
}

// MaterializerConfig carries chunk output settings.
type MaterializerConfig struct {
	// ChunkRoot is the directory under which each recording gets its own
	// chunk directory.
	ChunkRoot  string
	MaxChunkMB float64
}

// MaterializerService cuts a recording's audio into chunk files and persists
// their metadata. The chunk directory for a recording is exclusively owned
// by that recording while materialization runs.
type MaterializerService struct {
	extractor SegmentExtractor
	txRunner  TxRunner
	cfg       MaterializerConfig
}

func NewMaterializerService(extractor SegmentExtractor, txRunner TxRunner, cfg MaterializerConfig) *MaterializerService {
	return &MaterializerService{extractor: extractor, txRunner: txRunner, cfg: cfg}
}

// ChunkDir returns the recording's chunk output directory.
func (s *MaterializerService) ChunkDir(videoID string) string {
	return filepath.Join(s.cfg.ChunkRoot, videoID)
}

// Materialize extracts one chunk file per boundary pair built from
// [0, planPoints..., duration]. Extraction failure for any segment is fatal
// to the whole call; the caller is expected to run CleanupPartial.
func (s *MaterializerService) Materialize(ctx context.Context, audioPath string, planPoints []float64, videoID string) ([]*domain.Chunk, error) {
	duration, err := s.extractor.ProbeDuration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", videoID, err)
	}

	outputDir := s.ChunkDir(videoID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("materialize %s: %w", videoID, err)
	}

	boundaries := make([]float64, 0, len(planPoints)+2)
	boundaries = append(boundaries, 0)
	boundaries = append(boundaries, planPoints...)
	boundaries = append(boundaries, duration)

	ext := filepath.Ext(audioPath)
	now := time.Now().UTC()

	chunks := make([]*domain.Chunk, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		start, end := boundaries[i], boundaries[i+1]
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_chunk_%03d%s", videoID, i, ext))

		if err := s.extractor.ExtractSegment(ctx, audioPath, outputPath, start, end); err != nil {
			return nil, fmt.Errorf("materialize %s chunk %d: %w", videoID, i, err)
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			return nil, fmt.Errorf("materialize %s chunk %d: %w", videoID, i, err)
		}

		chunks = append(chunks, &domain.Chunk{
			VideoID:    videoID,
			ChunkIndex: i,
			FilePath:   outputPath,
			StartTime:  start,
			EndTime:    end,
			Duration:   end - start,
			FileSize:   info.Size(),
			CreatedAt:  now,
		})
	}

	return chunks, nil
}

// ValidateSizes re-checks every materialized chunk against the size ceiling
// and returns the offenders. One oversized chunk invalidates the whole set.
func (s *MaterializerService) ValidateSizes(chunks []*domain.Chunk) []*domain.Chunk {
	var oversized []*domain.Chunk
	for _, c := range chunks {
		if c.SizeMB() > s.cfg.MaxChunkMB {
			oversized = append(oversized, c)
		}
	}
	return oversized
}

// Persist inserts all chunk rows in one transaction so a storage failure
// never leaves a partial chunk set. Transient failures are retried with
// bounded backoff before surfacing.
func (s *MaterializerService) Persist(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return withStorageRetry(ctx, func() error {
		return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			return repos.Chunks().CreateBatch(ctx, chunks)
		})
	})
}

// CreateChunks runs materialize, size validation, and persistence for one
// recording. On any failure the recording's chunk directory is removed; the
// primary error wins and cleanup errors are only logged.
func (s *MaterializerService) CreateChunks(ctx context.Context, audioPath string, planPoints []float64, videoID string) ([]*domain.Chunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "materializer.create_chunks", telemetry.SpanAttributes{
		VideoID:   videoID,
		Operation: "create_chunks",
	})
	defer span.End()

	chunks, err := s.Materialize(ctx, audioPath, planPoints, videoID)
	if err != nil {
		s.CleanupPartial(videoID)
		span.SetError(err)
		return nil, err
	}

	if oversized := s.ValidateSizes(chunks); len(oversized) > 0 {
		s.CleanupPartial(videoID)
		err := domain.NewDomainErrorWithCause(
			domain.ErrCodeSizingViolation,
			fmt.Sprintf("%d of %d chunks exceed %.1f MB", len(oversized), len(chunks), s.cfg.MaxChunkMB),
			domain.ErrChunkTooLarge,
		)
		span.SetError(err)
		return nil, err
	}

	if err := domain.ValidateChunkSequence(chunks, chunks[len(chunks)-1].EndTime); err != nil {
		s.CleanupPartial(videoID)
		return nil, err
	}

	if err := s.Persist(ctx, chunks); err != nil {
		s.CleanupPartial(videoID)
		return nil, err
	}

	return chunks, nil
}

// CleanupPartial removes the recording's chunk directory recursively.
// Best-effort: orphaned files are recoverable, so failures are logged and
// never returned.
func (s *MaterializerService) CleanupPartial(videoID string) {
	dir := s.ChunkDir(videoID)
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("materializer: cleanup of %s failed: %v", dir, err)
	}
}

// DeleteAll removes a recording's chunk files and rows, returning the number
// of rows deleted. Missing files are tolerated; the chunk directory is
// removed only when empty. A recording with no chunk rows is a no-op.
func (s *MaterializerService) DeleteAll(ctx context.Context, videoID string) (int, error) {
	var chunks []*domain.Chunk
	var deleted int

	err := withStorageRetry(ctx, func() error {
		return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			var err error
			chunks, err = repos.Chunks().ListByVideoID(ctx, videoID)
			if err != nil {
				return err
			}
			if len(chunks) == 0 {
				deleted = 0
				return nil
			}

			for _, c := range chunks {
				if err := os.Remove(c.FilePath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("delete chunk file %s: %w", c.FilePath, err)
				}
			}

			deleted, err = repos.Chunks().DeleteByVideoID(ctx, videoID)
			return err
		})
	})
	if err != nil {
		return 0, err
	}

	if len(chunks) > 0 {
		removeDirIfEmpty(s.ChunkDir(videoID))
	}
	return deleted, nil
}

func removeDirIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		log.Printf("materializer: remove empty dir %s failed: %v", dir, err)
	}
}
