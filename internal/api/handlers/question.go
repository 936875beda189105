package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/api"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

const defaultQuestionCount = 10

type QuestionService interface {
	Generate(ctx context.Context, videoID string, count int) (*domain.Generation, []*domain.Question, error)
	GetGeneration(ctx context.Context, id int64) (*domain.Generation, []*domain.Question, error)
	ListGenerations(ctx context.Context, videoID string) ([]*domain.Generation, error)
}

type QuestionHandler struct {
	svc QuestionService
}

func NewQuestionHandler(svc QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

type GenerateRequest struct {
	Count int `json:"count"`
}

type QuestionResponse struct {
	Text   string `json:"question"`
	Answer string `json:"answer"`
}

type GenerationResponse struct {
	ID        int64               `json:"id"`
	VideoID   string              `json:"video_id"`
	Model     string              `json:"model"`
	Status    string              `json:"status"`
	Error     string              `json:"error,omitempty"`
	Questions []*QuestionResponse `json:"questions,omitempty"`
	CreatedAt string              `json:"created_at"`
}

func generationToResponse(g *domain.Generation, questions []*domain.Question) *GenerationResponse {
	resp := &GenerationResponse{
		ID:        g.ID,
		VideoID:   g.VideoID,
		Model:     g.Model,
		Status:    string(g.Status),
		Error:     g.Error,
		CreatedAt: g.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, &QuestionResponse{Text: q.Text, Answer: q.Answer})
	}
	return resp
}

func (h *QuestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	var req GenerateRequest
	if r.Body != nil {
		// An empty body means defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Count <= 0 {
		req.Count = defaultQuestionCount
	}

	gen, questions, err := h.svc.Generate(r.Context(), videoID, req.Count)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, generationToResponse(gen, questions))
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "generationID"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid generation id")
		return
	}

	gen, questions, err := h.svc.GetGeneration(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, generationToResponse(gen, questions))
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	gens, err := h.svc.ListGenerations(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*GenerationResponse, 0, len(gens))
	for _, g := range gens {
		out = append(out, generationToResponse(g, nil))
	}
	api.Success(w, http.StatusOK, out)
}
