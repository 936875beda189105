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

type MockQuestionService struct {
	mock.Mock
}

func (m *MockQuestionService) Generate(ctx context.Context, videoID string, count int) (*domain.Generation, []*domain.Question, error) {
	args := m.Called(ctx, videoID, count)
	var gen *domain.Generation
	var questions []*domain.Question
	if args.Get(0) != nil {
		gen = args.Get(0).(*domain.Generation)
	}
	if args.Get(1) != nil {
		questions = args.Get(1).([]*domain.Question)
	}
	return gen, questions, args.Error(2)
}

func (m *MockQuestionService) GetGeneration(ctx context.Context, id int64) (*domain.Generation, []*domain.Question, error) {
	args := m.Called(ctx, id)
	var gen *domain.Generation
	var questions []*domain.Question
	if args.Get(0) != nil {
		gen = args.Get(0).(*domain.Generation)
	}
	if args.Get(1) != nil {
		questions = args.Get(1).([]*domain.Question)
	}
	return gen, questions, args.Error(2)
}

func (m *MockQuestionService) ListGenerations(ctx context.Context, videoID string) ([]*domain.Generation, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Generation), args.Error(1)
}

func questionRouter(svc *MockQuestionService) http.Handler {
	h := NewQuestionHandler(svc)
	r := chi.NewRouter()
	r.Post("/recordings/{videoID}/questions", h.Generate)
	r.Get("/recordings/{videoID}/questions", h.List)
	r.Get("/generations/{generationID}", h.Get)
	return r
}

func testGeneration(id int64) *domain.Generation {
	return &domain.Generation{
		ID:            id,
		VideoID:       "dQw4w9WgXcQ",
		TranscriptID:  1,
		Provider:      "chat",
		Model:         "llama3.1",
		QuestionCount: 2,
		Status:        domain.GenerationStatusCompleted,
		CreatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestQuestionHandler_Generate(t *testing.T) {
	svc := new(MockQuestionService)
	svc.On("Generate", mock.Anything, "dQw4w9WgXcQ", 2).
		Return(testGeneration(5), []*domain.Question{
			{GenerationID: 5, Text: "Q1?", Answer: "A1"},
			{GenerationID: 5, Text: "Q2?", Answer: "A2"},
		}, nil)

	router := questionRouter(svc)
	req := httptest.NewRequest(http.MethodPost, "/recordings/dQw4w9WgXcQ/questions",
		strings.NewReader(`{"count": 2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data GenerationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.Data.ID)
	assert.Equal(t, "completed", resp.Data.Status)
	require.Len(t, resp.Data.Questions, 2)
	assert.Equal(t, "Q1?", resp.Data.Questions[0].Text)
	svc.AssertExpectations(t)
}

func TestQuestionHandler_Generate_DefaultCount(t *testing.T) {
	svc := new(MockQuestionService)
	svc.On("Generate", mock.Anything, "dQw4w9WgXcQ", defaultQuestionCount).
		Return(testGeneration(5), []*domain.Question{{Text: "Q?", Answer: "A"}}, nil)

	router := questionRouter(svc)
	req := httptest.NewRequest(http.MethodPost, "/recordings/dQw4w9WgXcQ/questions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestQuestionHandler_Generate_NoTranscript(t *testing.T) {
	svc := new(MockQuestionService)
	svc.On("Generate", mock.Anything, "dQw4w9WgXcQ", defaultQuestionCount).
		Return(nil, nil, domain.ErrTranscriptNotFound)

	router := questionRouter(svc)
	req := httptest.NewRequest(http.MethodPost, "/recordings/dQw4w9WgXcQ/questions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuestionHandler_Get(t *testing.T) {
	svc := new(MockQuestionService)
	svc.On("GetGeneration", mock.Anything, int64(5)).
		Return(testGeneration(5), []*domain.Question{{Text: "Q?", Answer: "A"}}, nil)

	router := questionRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/generations/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQuestionHandler_Get_InvalidID(t *testing.T) {
	svc := new(MockQuestionService)
	router := questionRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/generations/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "GetGeneration", mock.Anything, mock.Anything)
}

func TestQuestionHandler_List(t *testing.T) {
	svc := new(MockQuestionService)
	failed := testGeneration(6)
	failed.Status = domain.GenerationStatusFailed
	failed.Error = "model timeout"
	svc.On("ListGenerations", mock.Anything, "dQw4w9WgXcQ").
		Return([]*domain.Generation{testGeneration(5), failed}, nil)

	router := questionRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/recordings/dQw4w9WgXcQ/questions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []*GenerationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "failed", resp.Data[1].Status)
	assert.Equal(t, "model timeout", resp.Data[1].Error)
}
