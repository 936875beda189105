package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/api"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/service"
)

type TranscriptionService interface {
	ProcessChunked(ctx context.Context, videoID string) (*service.ProcessResult, error)
	ProcessWhole(ctx context.Context, videoID, audioPath string) (*service.ProcessResult, error)
	ProcessMany(ctx context.Context, videoIDs []string) []*service.ProcessResult
}

type TranscriptReader interface {
	GetByVideoID(ctx context.Context, videoID string) (*domain.Transcript, error)
	ListChunkTranscripts(ctx context.Context, transcriptID int64) ([]*domain.ChunkTranscript, error)
}

type ChunkReader interface {
	ListByVideoID(ctx context.Context, videoID string) ([]*domain.Chunk, error)
}

type RecordingReader interface {
	GetByVideoID(ctx context.Context, videoID string) (*domain.Recording, error)
}

type TranscriptionHandler struct {
	svc         TranscriptionService
	transcripts TranscriptReader
	chunks      ChunkReader
	recordings  RecordingReader
}

func NewTranscriptionHandler(
	svc TranscriptionService,
	transcripts TranscriptReader,
	chunks ChunkReader,
	recordings RecordingReader,
) *TranscriptionHandler {
	return &TranscriptionHandler{
		svc:         svc,
		transcripts: transcripts,
		chunks:      chunks,
		recordings:  recordings,
	}
}

type TranscriptResponse struct {
	VideoID    string `json:"video_id"`
	Text       string `json:"text"`
	HasVector  bool   `json:"has_embedding"`
	ChunkCount int    `json:"chunk_count"`
	CreatedAt  string `json:"created_at"`
}

type ProcessBatchRequest struct {
	VideoIDs []string `json:"video_ids"`
}

// Process transcribes one recording, chunked when chunk rows exist and
// whole-file otherwise.
func (h *TranscriptionHandler) Process(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	chunks, err := h.chunks.ListByVideoID(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	var result *service.ProcessResult
	if len(chunks) > 0 {
		result, err = h.svc.ProcessChunked(r.Context(), videoID)
	} else {
		rec, recErr := h.recordings.GetByVideoID(r.Context(), videoID)
		if recErr != nil {
			api.HandleError(w, recErr)
			return
		}
		if !rec.HasAudio() {
			api.HandleError(w, domain.ErrAudioNotDownloaded)
			return
		}
		result, err = h.svc.ProcessWhole(r.Context(), videoID, rec.FilePath)
	}
	if err != nil && result == nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// ProcessBatch transcribes several recordings sequentially and reports one
// result per recording.
func (h *TranscriptionHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req ProcessBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.VideoIDs) == 0 {
		api.Error(w, http.StatusBadRequest, "video_ids is required")
		return
	}

	results := h.svc.ProcessMany(r.Context(), req.VideoIDs)
	api.Success(w, http.StatusOK, results)
}

func (h *TranscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	transcript, err := h.transcripts.GetByVideoID(r.Context(), videoID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	chunkTranscripts, err := h.transcripts.ListChunkTranscripts(r.Context(), transcript.ID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &TranscriptResponse{
		VideoID:    transcript.VideoID,
		Text:       transcript.Text,
		HasVector:  transcript.Embedding != nil,
		ChunkCount: len(chunkTranscripts),
		CreatedAt:  transcript.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}
