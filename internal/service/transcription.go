package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/telemetry"
)

// TranscriptionProvider turns an audio file into text. It returns an empty
// string (not an error) when the file fails validation or the engine
// produces nothing, and wraps domain.ErrProviderUnavailable when the
// underlying service cannot be reached at all.
type TranscriptionProvider interface {
	TranscribeAudio(ctx context.Context, filePath, language string) (string, error)
}

// EmbeddingProvider turns text into a vector. It returns nil (not an error)
// on empty input or a degenerate output vector.
type EmbeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ProcessStatus classifies the outcome of one recording's transcription run.
type ProcessStatus string

const (
	StatusSuccess        ProcessStatus = "success"
	StatusPartialSuccess ProcessStatus = "partial_success"
	StatusFailed         ProcessStatus = "failed"
)

// RunPhase is the orchestrator's position in a recording's run.
type RunPhase string

const (
	PhaseValidating  RunPhase = "validating"
	PhaseProcessing  RunPhase = "processing"
	PhaseAggregating RunPhase = "aggregating"
	PhaseDone        RunPhase = "done"
	PhaseFailed      RunPhase = "failed"
)

// runProgress tracks the orchestrator's state machine for one recording.
// Step counters are derived from it rather than driving control flow:
// total = 1 (validation) + 2 per chunk (transcribe + embed) + 1 (aggregation).
type runProgress struct {
	phase      RunPhase
	validated  bool
	chunkIndex int
	chunkCount int
	chunksDone int
}

func newRunProgress(chunkCount int) *runProgress {
	return &runProgress{phase: PhaseValidating, chunkCount: chunkCount}
}

func (p *runProgress) startChunk(index int) {
	p.phase = PhaseProcessing
	p.chunkIndex = index
}

// finishChunk records a chunk as consumed. A failed chunk consumes its two
// steps just like a successful one, so progress stays monotonic.
func (p *runProgress) finishChunk() {
	p.chunksDone++
}

func (p *runProgress) totalSteps() int {
	return 1 + 2*p.chunkCount + 1
}

func (p *runProgress) stepsCompleted() int {
	switch p.phase {
	case PhaseValidating:
		return 0
	case PhaseProcessing, PhaseAggregating:
		return 1 + 2*p.chunksDone
	case PhaseDone:
		return p.totalSteps()
	case PhaseFailed:
		// The validation step only counts once it actually passed; a run
		// that failed validating has completed nothing.
		if !p.validated {
			return 0
		}
		return 1 + 2*p.chunksDone
	}
	return 0
}

// ProcessResult reports one recording's transcription outcome with exact
// progress counters, so a partially processed recording is distinguishable
// from a finished one.
type ProcessResult struct {
	VideoID             string        `json:"video_id"`
	Status              ProcessStatus `json:"status"`
	TranscriptID        int64         `json:"transcript_id,omitempty"`
	StepsCompleted      int           `json:"steps_completed"`
	TotalSteps          int           `json:"total_steps"`
	ChunkCount          int           `json:"chunk_count"`
	MissingChunkIndices []int         `json:"missing_chunk_indices,omitempty"`
	FailedChunks        []int         `json:"failed_chunks,omitempty"`
	Error               string        `json:"error,omitempty"`
}

// TranscriptionService orchestrates chunked transcription: it walks a
// recording's chunk set in index order, transcribes and embeds each chunk
// through injected providers, persists partial results as it goes, and
// reconciles per-chunk outcomes into one transcript row.
//
// Processing is deliberately sequential. The providers hold large model or
// connection state, and one slow recording must not starve the others of
// memory; predictable resource usage beats throughput here.
type TranscriptionService struct {
	provider   TranscriptionProvider
	embedder   EmbeddingProvider
	txRunner   TxRunner
	chunks     ChunkRepositoryInterface
	recordings RecordingRepositoryInterface
	language   string
}

func NewTranscriptionService(
	provider TranscriptionProvider,
	embedder EmbeddingProvider,
	txRunner TxRunner,
	chunks ChunkRepositoryInterface,
	recordings RecordingRepositoryInterface,
	language string,
) *TranscriptionService {
	return &TranscriptionService{
		provider:   provider,
		embedder:   embedder,
		txRunner:   txRunner,
		chunks:     chunks,
		recordings: recordings,
		language:   language,
	}
}

// ProcessChunked runs the full chunked pipeline for one recording. It
// prefers graceful degradation over strict atomicity: a transcript covering
// most of a recording beats discarding all work because one chunk failed.
// Provider unavailability is the exception, it aborts the run as an
// infrastructure error rather than burning through every remaining chunk.
func (s *TranscriptionService) ProcessChunked(ctx context.Context, videoID string) (*ProcessResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "transcription.process_chunked", telemetry.SpanAttributes{
		VideoID:   videoID,
		Operation: "process_chunked",
	})
	defer span.End()

	chunks, err := s.chunks.ListByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	progress := newRunProgress(len(chunks))
	result := &ProcessResult{
		VideoID:    videoID,
		ChunkCount: len(chunks),
		TotalSteps: progress.totalSteps(),
	}

	// A recording with no chunk rows has nothing to walk; callers that want
	// whole-file processing must route there before reaching this point. No
	// transcript row is created for the empty run.
	if len(chunks) == 0 {
		progress.phase = PhaseFailed
		result.Status = StatusFailed
		result.StepsCompleted = progress.stepsCompleted()
		result.Error = "recording has no chunks"
		return result, nil
	}

	// Pre-flight: every chunk file must still exist. A missing chunk makes
	// the final concatenation order-incomplete in a way that cannot be
	// silently patched, so nothing is attempted.
	var missing []int
	for _, c := range chunks {
		if _, err := os.Stat(c.FilePath); err != nil {
			missing = append(missing, c.ChunkIndex)
		}
	}
	if len(missing) > 0 {
		progress.phase = PhaseFailed
		result.Status = StatusFailed
		result.MissingChunkIndices = missing
		result.StepsCompleted = progress.stepsCompleted()
		result.Error = domain.ErrChunkFilesMissing.Error()
		return result, nil
	}
	progress.validated = true
	progress.phase = PhaseProcessing

	// Placeholder transcript row so chunk transcripts have a stable parent
	// id before any provider call runs.
	transcript := &domain.Transcript{VideoID: videoID, CreatedAt: time.Now().UTC()}
	err = withStorageRetry(ctx, func() error {
		return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			return repos.Transcripts().CreatePlaceholder(ctx, transcript)
		})
	})
	if err != nil {
		return nil, err
	}
	result.TranscriptID = transcript.ID

	texts := make([]string, 0, len(chunks))
	var failed []int

	for _, c := range chunks {
		progress.startChunk(c.ChunkIndex)

		text, err := s.processChunk(ctx, videoID, transcript.ID, c)
		if err != nil {
			progress.phase = PhaseFailed
			result.Status = StatusFailed
			result.FailedChunks = failed
			result.StepsCompleted = progress.stepsCompleted()
			result.Error = err.Error()
			return result, err
		}
		progress.finishChunk()
		if text == "" {
			failed = append(failed, c.ChunkIndex)
			continue
		}
		texts = append(texts, text)
	}

	progress.phase = PhaseAggregating
	result.FailedChunks = failed

	if len(texts) == 0 {
		progress.phase = PhaseFailed
		result.Status = StatusFailed
		result.StepsCompleted = progress.stepsCompleted()
		result.Error = "no chunks produced text"
		return result, nil
	}

	// Aggregation: one text, one embedding over that text. Per-chunk
	// embeddings are never averaged into the whole-recording vector. A nil
	// vector from the embedder fails the run just like an error does.
	fullText := strings.Join(texts, " ")
	fullEmbedding, err := s.embedder.GenerateEmbedding(ctx, fullText)
	if err != nil || fullEmbedding == nil {
		// The text itself is still worth keeping for inspection.
		_ = s.updateTranscript(ctx, transcript.ID, fullText, nil)
		progress.phase = PhaseFailed
		result.Status = StatusFailed
		result.StepsCompleted = progress.stepsCompleted()
		if err != nil {
			result.Error = fmt.Sprintf("aggregate embedding failed: %v", err)
		} else {
			result.Error = "aggregate embedding failed: empty vector"
		}
		return result, nil
	}

	if err := s.updateTranscript(ctx, transcript.ID, fullText, fullEmbedding); err != nil {
		return nil, err
	}

	progress.phase = PhaseDone
	result.StepsCompleted = progress.stepsCompleted()
	if len(failed) > 0 {
		result.Status = StatusPartialSuccess
	} else {
		result.Status = StatusSuccess
	}
	return result, nil
}

// processChunk transcribes, embeds, and persists one chunk. An empty text
// return marks the chunk failed without stopping the run; a non-nil error
// means the provider is unreachable and the run must abort.
func (s *TranscriptionService) processChunk(ctx context.Context, videoID string, transcriptID int64, c *domain.Chunk) (string, error) {
	idx := c.ChunkIndex
	ctx, span := telemetry.StartSpan(ctx, "transcription.process_chunk", telemetry.SpanAttributes{
		VideoID:    videoID,
		ChunkIndex: &idx,
		Operation:  "process_chunk",
	})
	defer span.End()

	text, err := s.provider.TranscribeAudio(ctx, c.FilePath, s.language)
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) {
			span.SetError(err)
			return "", err
		}
		log.Printf("transcription: chunk %d of %s failed: %v", c.ChunkIndex, videoID, err)
		return "", nil
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil || embedding == nil {
		if err != nil {
			log.Printf("transcription: embedding chunk %d of %s failed: %v", c.ChunkIndex, videoID, err)
		}
		return "", nil
	}

	ct := &domain.ChunkTranscript{
		TranscriptID: transcriptID,
		ChunkID:      c.ID,
		Text:         text,
		Embedding:    embedding,
		CreatedAt:    time.Now().UTC(),
	}
	err = withStorageRetry(ctx, func() error {
		return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			return repos.Transcripts().CreateChunkTranscript(ctx, ct)
		})
	})
	if err != nil {
		log.Printf("transcription: persisting chunk %d of %s failed: %v", c.ChunkIndex, videoID, err)
		return "", nil
	}
	return text, nil
}

func (s *TranscriptionService) updateTranscript(ctx context.Context, id int64, text string, embedding []float32) error {
	return withStorageRetry(ctx, func() error {
		return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			return repos.Transcripts().UpdateContent(ctx, id, text, embedding)
		})
	})
}

// wholeFileTotalSteps: validate, transcribe, embed, persist, finalize.
const wholeFileTotalSteps = 5

// ProcessWhole transcribes a recording's audio in one provider call, for
// recordings small enough to skip segmentation.
func (s *TranscriptionService) ProcessWhole(ctx context.Context, videoID, audioPath string) (*ProcessResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "transcription.process_whole", telemetry.SpanAttributes{
		VideoID:   videoID,
		Operation: "process_whole",
	})
	defer span.End()

	result := &ProcessResult{
		VideoID:    videoID,
		TotalSteps: wholeFileTotalSteps,
	}

	if _, err := os.Stat(audioPath); err != nil {
		result.Status = StatusFailed
		result.Error = fmt.Sprintf("audio file missing: %v", err)
		return result, nil
	}
	result.StepsCompleted = 1

	text, err := s.provider.TranscribeAudio(ctx, audioPath, s.language)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		if errors.Is(err, domain.ErrProviderUnavailable) {
			span.SetError(err)
			return result, err
		}
		return result, nil
	}
	if strings.TrimSpace(text) == "" {
		result.Status = StatusFailed
		result.Error = "transcription produced no text"
		return result, nil
	}
	result.StepsCompleted = 2

	embedding, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil || embedding == nil {
		result.Status = StatusFailed
		if err != nil {
			result.Error = fmt.Sprintf("embedding failed: %v", err)
		} else {
			result.Error = "embedding failed: empty vector"
		}
		return result, nil
	}
	result.StepsCompleted = 3

	transcript := &domain.Transcript{VideoID: videoID, CreatedAt: time.Now().UTC()}
	err = withStorageRetry(ctx, func() error {
		return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			if err := repos.Transcripts().CreatePlaceholder(ctx, transcript); err != nil {
				return err
			}
			return repos.Transcripts().UpdateContent(ctx, transcript.ID, text, embedding)
		})
	})
	if err != nil {
		return nil, err
	}
	result.StepsCompleted = wholeFileTotalSteps
	result.TranscriptID = transcript.ID
	result.Status = StatusSuccess
	return result, nil
}

// ProcessMany handles a batch of recordings strictly one at a time. One
// recording's failure never stops the batch; its result carries the error.
func (s *TranscriptionService) ProcessMany(ctx context.Context, videoIDs []string) []*ProcessResult {
	results := make([]*ProcessResult, 0, len(videoIDs))
	for _, id := range videoIDs {
		result, err := s.processOne(ctx, id)
		if result == nil {
			result = &ProcessResult{
				VideoID: id,
				Status:  StatusFailed,
				Error:   err.Error(),
			}
		}
		results = append(results, result)
	}
	return results
}

// processOne routes a recording to chunked processing when chunk rows exist
// and to whole-file processing otherwise.
func (s *TranscriptionService) processOne(ctx context.Context, videoID string) (*ProcessResult, error) {
	chunks, err := s.chunks.ListByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(chunks) > 0 {
		return s.ProcessChunked(ctx, videoID)
	}

	rec, err := s.recordings.GetByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !rec.HasAudio() {
		return nil, domain.ErrAudioNotDownloaded
	}
	return s.ProcessWhole(ctx, videoID, rec.FilePath)
}
