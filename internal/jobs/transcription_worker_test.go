package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/service"
)

type MockPendingRepo struct {
	mock.Mock
}

func (m *MockPendingRepo) ListPendingTranscription(ctx context.Context, limit int) ([]*domain.Recording, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Recording), args.Error(1)
}

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) PrepareChunks(ctx context.Context, videoID string) ([]*domain.Chunk, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chunk), args.Error(1)
}

func (m *MockPipeline) ProcessChunked(ctx context.Context, videoID string) (*service.ProcessResult, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessResult), args.Error(1)
}

func (m *MockPipeline) ProcessWhole(ctx context.Context, videoID, audioPath string) (*service.ProcessResult, error) {
	args := m.Called(ctx, videoID, audioPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessResult), args.Error(1)
}

func pendingRecording(videoID string) *domain.Recording {
	return &domain.Recording{
		VideoID:  videoID,
		Title:    "Pending",
		FilePath: "/audio/" + videoID + ".m4a",
	}
}

func TestTranscriptionWorker_ProcessJobs_NoPending(t *testing.T) {
	repo := new(MockPendingRepo)
	pipeline := new(MockPipeline)
	repo.On("ListPendingTranscription", mock.Anything, PendingBatchSize).
		Return([]*domain.Recording{}, nil)

	worker := NewTranscriptionWorker(repo, pipeline)

	assert.NoError(t, worker.ProcessJobs(context.Background()))
	pipeline.AssertNotCalled(t, "PrepareChunks", mock.Anything, mock.Anything)
}

func TestTranscriptionWorker_ProcessJobs_ChunkedPath(t *testing.T) {
	repo := new(MockPendingRepo)
	pipeline := new(MockPipeline)
	repo.On("ListPendingTranscription", mock.Anything, PendingBatchSize).
		Return([]*domain.Recording{pendingRecording("aaaaaaaaaaa")}, nil)
	pipeline.On("PrepareChunks", mock.Anything, "aaaaaaaaaaa").
		Return([]*domain.Chunk{{ChunkIndex: 0}, {ChunkIndex: 1}}, nil)
	pipeline.On("ProcessChunked", mock.Anything, "aaaaaaaaaaa").
		Return(&service.ProcessResult{VideoID: "aaaaaaaaaaa", Status: service.StatusSuccess}, nil)

	worker := NewTranscriptionWorker(repo, pipeline)

	require.NoError(t, worker.ProcessJobs(context.Background()))
	pipeline.AssertNotCalled(t, "ProcessWhole", mock.Anything, mock.Anything, mock.Anything)
	pipeline.AssertExpectations(t)
}

func TestTranscriptionWorker_ProcessJobs_WholePath(t *testing.T) {
	repo := new(MockPendingRepo)
	pipeline := new(MockPipeline)
	repo.On("ListPendingTranscription", mock.Anything, PendingBatchSize).
		Return([]*domain.Recording{pendingRecording("aaaaaaaaaaa")}, nil)
	pipeline.On("PrepareChunks", mock.Anything, "aaaaaaaaaaa").
		Return([]*domain.Chunk{}, nil)
	pipeline.On("ProcessWhole", mock.Anything, "aaaaaaaaaaa", "/audio/aaaaaaaaaaa.m4a").
		Return(&service.ProcessResult{VideoID: "aaaaaaaaaaa", Status: service.StatusSuccess}, nil)

	worker := NewTranscriptionWorker(repo, pipeline)

	require.NoError(t, worker.ProcessJobs(context.Background()))
	pipeline.AssertExpectations(t)
}

func TestTranscriptionWorker_ProcessJobs_OneFailureDoesNotStopBatch(t *testing.T) {
	repo := new(MockPendingRepo)
	pipeline := new(MockPipeline)
	repo.On("ListPendingTranscription", mock.Anything, PendingBatchSize).
		Return([]*domain.Recording{pendingRecording("aaaaaaaaaaa"), pendingRecording("bbbbbbbbbbb")}, nil)
	pipeline.On("PrepareChunks", mock.Anything, "aaaaaaaaaaa").
		Return(nil, errors.New("ffmpeg missing"))
	pipeline.On("PrepareChunks", mock.Anything, "bbbbbbbbbbb").
		Return([]*domain.Chunk{}, nil)
	pipeline.On("ProcessWhole", mock.Anything, "bbbbbbbbbbb", "/audio/bbbbbbbbbbb.m4a").
		Return(&service.ProcessResult{VideoID: "bbbbbbbbbbb", Status: service.StatusSuccess}, nil)

	worker := NewTranscriptionWorker(repo, pipeline)

	require.NoError(t, worker.ProcessJobs(context.Background()))
	pipeline.AssertExpectations(t)
}

func TestTranscriptionWorker_ProcessJobs_ListFailure(t *testing.T) {
	repo := new(MockPendingRepo)
	pipeline := new(MockPipeline)
	repo.On("ListPendingTranscription", mock.Anything, PendingBatchSize).
		Return(nil, errors.New("connection lost"))

	worker := NewTranscriptionWorker(repo, pipeline)

	assert.Error(t, worker.ProcessJobs(context.Background()))
}

// countingProcessor counts poll invocations for the generic worker loop.
type countingProcessor struct {
	mu    sync.Mutex
	count int
}

func (p *countingProcessor) ProcessJobs(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return nil
}

func (p *countingProcessor) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func TestWorker_StartAndStop(t *testing.T) {
	processor := &countingProcessor{}
	worker := NewWorker("test", processor, 10*time.Millisecond)

	go worker.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	worker.Stop()

	assert.Greater(t, processor.calls(), 0)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	processor := &countingProcessor{}
	worker := NewWorker("test", processor, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
