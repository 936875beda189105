package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/api"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

type RecordingService interface {
	Ingest(ctx context.Context, url string) (*domain.Recording, error)
	Download(ctx context.Context, videoID string) (*domain.Recording, error)
	PrepareChunks(ctx context.Context, videoID string) ([]*domain.Chunk, error)
	Get(ctx context.Context, videoID string) (*domain.Recording, error)
	List(ctx context.Context) ([]*domain.Recording, error)
	Delete(ctx context.Context, videoID string) error
}

type RecordingHandler struct {
	svc RecordingService
}

func NewRecordingHandler(svc RecordingService) *RecordingHandler {
	return &RecordingHandler{svc: svc}
}

type IngestRequest struct {
	URL string `json:"url"`
}

type RecordingResponse struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
	Downloaded   bool   `json:"downloaded"`
	CreatedAt    string `json:"created_at"`
}

type ChunkResponse struct {
	ChunkIndex int     `json:"chunk_index"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	SizeMB     float64 `json:"size_mb"`
}

func recordingToResponse(rec *domain.Recording) *RecordingResponse {
	return &RecordingResponse{
		VideoID:      rec.VideoID,
		Title:        rec.Title,
		ThumbnailURL: rec.ThumbnailURL,
		FilePath:     rec.FilePath,
		Downloaded:   rec.HasAudio(),
		CreatedAt:    rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func chunksToResponse(chunks []*domain.Chunk) []*ChunkResponse {
	out := make([]*ChunkResponse, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, &ChunkResponse{
			ChunkIndex: c.ChunkIndex,
			StartTime:  c.StartTime,
			EndTime:    c.EndTime,
			Duration:   c.Duration,
			SizeMB:     c.SizeMB(),
		})
	}
	return out
}

func (h *RecordingHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		api.Error(w, http.StatusBadRequest, "url is required")
		return
	}

	rec, err := h.svc.Ingest(r.Context(), req.URL)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, recordingToResponse(rec))
}

func (h *RecordingHandler) Download(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	rec, err := h.svc.Download(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, recordingToResponse(rec))
}

func (h *RecordingHandler) PrepareChunks(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	chunks, err := h.svc.PrepareChunks(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]interface{}{
		"video_id":  videoID,
		"segmented": len(chunks) > 0,
		"chunks":    chunksToResponse(chunks),
	})
}

func (h *RecordingHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	rec, err := h.svc.Get(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, recordingToResponse(rec))
}

func (h *RecordingHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*RecordingResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordingToResponse(rec))
	}
	api.Success(w, http.StatusOK, out)
}

func (h *RecordingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	if err := h.svc.Delete(r.Context(), videoID); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"video_id": videoID, "status": "deleted"})
}
