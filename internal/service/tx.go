package service

import (
	"context"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

// RecordingRepositoryInterface is the subset of recording persistence the
// services need.
type RecordingRepositoryInterface interface {
	Create(ctx context.Context, rec *domain.Recording) error
	Upsert(ctx context.Context, rec *domain.Recording) error
	GetByVideoID(ctx context.Context, videoID string) (*domain.Recording, error)
	List(ctx context.Context) ([]*domain.Recording, error)
	UpdateFilePath(ctx context.Context, videoID, filePath string) error
	Delete(ctx context.Context, videoID string) error
}

// ChunkRepositoryInterface is the subset of chunk persistence the services need.
type ChunkRepositoryInterface interface {
	CreateBatch(ctx context.Context, chunks []*domain.Chunk) error
	ListByVideoID(ctx context.Context, videoID string) ([]*domain.Chunk, error)
	DeleteByVideoID(ctx context.Context, videoID string) (int, error)
}

// TranscriptRepositoryInterface is the subset of transcript persistence the
// services need.
type TranscriptRepositoryInterface interface {
	CreatePlaceholder(ctx context.Context, t *domain.Transcript) error
	UpdateContent(ctx context.Context, id int64, text string, embedding []float32) error
	GetByVideoID(ctx context.Context, videoID string) (*domain.Transcript, error)
	DeleteByVideoID(ctx context.Context, videoID string) error
	CreateChunkTranscript(ctx context.Context, ct *domain.ChunkTranscript) error
	ListChunkTranscripts(ctx context.Context, transcriptID int64) ([]*domain.ChunkTranscript, error)
}

// GenerationRepositoryInterface is the subset of question-generation
// persistence the services need.
type GenerationRepositoryInterface interface {
	Create(ctx context.Context, g *domain.Generation) error
	GetByID(ctx context.Context, id int64) (*domain.Generation, error)
	ListByVideoID(ctx context.Context, videoID string) ([]*domain.Generation, error)
	UpdateStatus(ctx context.Context, id int64, status domain.GenerationStatus, errMsg string) error
	CreateQuestions(ctx context.Context, questions []*domain.Question) error
	ListQuestions(ctx context.Context, generationID int64) ([]*domain.Question, error)
}

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Recordings() RecordingRepositoryInterface
	Chunks() ChunkRepositoryInterface
	Transcripts() TranscriptRepositoryInterface
	Generations() GenerationRepositoryInterface
}

// TxRunner executes a function within a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
