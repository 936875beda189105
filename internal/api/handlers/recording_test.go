package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

type MockRecordingService struct {
	mock.Mock
}

func (m *MockRecordingService) Ingest(ctx context.Context, url string) (*domain.Recording, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recording), args.Error(1)
}

func (m *MockRecordingService) Download(ctx context.Context, videoID string) (*domain.Recording, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recording), args.Error(1)
}

func (m *MockRecordingService) PrepareChunks(ctx context.Context, videoID string) ([]*domain.Chunk, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chunk), args.Error(1)
}

func (m *MockRecordingService) Get(ctx context.Context, videoID string) (*domain.Recording, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recording), args.Error(1)
}

func (m *MockRecordingService) List(ctx context.Context) ([]*domain.Recording, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Recording), args.Error(1)
}

func (m *MockRecordingService) Delete(ctx context.Context, videoID string) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

func recordingRouter(h *RecordingHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/recordings", func(r chi.Router) {
		r.Post("/", h.Ingest)
		r.Get("/", h.List)
		r.Route("/{videoID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Post("/download", h.Download)
			r.Post("/chunks", h.PrepareChunks)
		})
	})
	return r
}

func testRecording(videoID string) *domain.Recording {
	return &domain.Recording{
		ID:        1,
		VideoID:   videoID,
		Title:     "Some Lecture",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordingHandler_Ingest(t *testing.T) {
	svc := new(MockRecordingService)
	svc.On("Ingest", mock.Anything, "https://youtu.be/dQw4w9WgXcQ").
		Return(testRecording("dQw4w9WgXcQ"), nil)

	router := recordingRouter(NewRecordingHandler(svc))
	req := httptest.NewRequest(http.MethodPost, "/recordings",
		strings.NewReader(`{"url": "https://youtu.be/dQw4w9WgXcQ"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data RecordingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dQw4w9WgXcQ", resp.Data.VideoID)
	assert.False(t, resp.Data.Downloaded)
	svc.AssertExpectations(t)
}

func TestRecordingHandler_Ingest_MissingURL(t *testing.T) {
	svc := new(MockRecordingService)
	router := recordingRouter(NewRecordingHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/recordings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestRecordingHandler_Ingest_InvalidBody(t *testing.T) {
	svc := new(MockRecordingService)
	router := recordingRouter(NewRecordingHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/recordings", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordingHandler_Ingest_ValidationError(t *testing.T) {
	svc := new(MockRecordingService)
	svc.On("Ingest", mock.Anything, "garbage").
		Return(nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid video URL"))

	router := recordingRouter(NewRecordingHandler(svc))
	req := httptest.NewRequest(http.MethodPost, "/recordings", strings.NewReader(`{"url": "garbage"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordingHandler_Get_NotFound(t *testing.T) {
	svc := new(MockRecordingService)
	svc.On("Get", mock.Anything, "dQw4w9WgXcQ").Return(nil, domain.ErrRecordingNotFound)

	router := recordingRouter(NewRecordingHandler(svc))
	req := httptest.NewRequest(http.MethodGet, "/recordings/dQw4w9WgXcQ", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordingHandler_PrepareChunks_Segmented(t *testing.T) {
	svc := new(MockRecordingService)
	svc.On("PrepareChunks", mock.Anything, "dQw4w9WgXcQ").
		Return([]*domain.Chunk{
			{ChunkIndex: 0, StartTime: 0, EndTime: 150, Duration: 150, FileSize: 1024 * 1024},
			{ChunkIndex: 1, StartTime: 150, EndTime: 300, Duration: 150, FileSize: 1024 * 1024},
		}, nil)

	router := recordingRouter(NewRecordingHandler(svc))
	req := httptest.NewRequest(http.MethodPost, "/recordings/dQw4w9WgXcQ/chunks", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Segmented bool             `json:"segmented"`
			Chunks    []*ChunkResponse `json:"chunks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Segmented)
	assert.Len(t, resp.Data.Chunks, 2)
}

func TestRecordingHandler_PrepareChunks_SmallFile(t *testing.T) {
	svc := new(MockRecordingService)
	svc.On("PrepareChunks", mock.Anything, "dQw4w9WgXcQ").Return([]*domain.Chunk{}, nil)

	router := recordingRouter(NewRecordingHandler(svc))
	req := httptest.NewRequest(http.MethodPost, "/recordings/dQw4w9WgXcQ/chunks", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Segmented bool `json:"segmented"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Segmented)
}

func TestRecordingHandler_PrepareChunks_SizingViolation(t *testing.T) {
	svc := new(MockRecordingService)
	svc.On("PrepareChunks", mock.Anything, "dQw4w9WgXcQ").
		Return(nil, domain.NewDomainErrorWithCause(
			domain.ErrCodeSizingViolation, "1 of 2 chunks exceed 25.0 MB", domain.ErrChunkTooLarge))

	router := recordingRouter(NewRecordingHandler(svc))
	req := httptest.NewRequest(http.MethodPost, "/recordings/dQw4w9WgXcQ/chunks", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRecordingHandler_Delete(t *testing.T) {
	svc := new(MockRecordingService)
	svc.On("Delete", mock.Anything, "dQw4w9WgXcQ").Return(nil)

	router := recordingRouter(NewRecordingHandler(svc))
	req := httptest.NewRequest(http.MethodDelete, "/recordings/dQw4w9WgXcQ", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestRecordingHandler_List(t *testing.T) {
	svc := new(MockRecordingService)
	svc.On("List", mock.Anything).
		Return([]*domain.Recording{testRecording("aaaaaaaaaaa"), testRecording("bbbbbbbbbbb")}, nil)

	router := recordingRouter(NewRecordingHandler(svc))
	req := httptest.NewRequest(http.MethodGet, "/recordings", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []*RecordingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}
