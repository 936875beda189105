package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/api"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/api/handlers"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/api/middleware"
)

type RouterConfig struct {
	RecordingHandler     *handlers.RecordingHandler
	TranscriptionHandler *handlers.TranscriptionHandler
	QuestionHandler      *handlers.QuestionHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/recordings", func(r chi.Router) {
		r.Post("/", cfg.RecordingHandler.Ingest)
		r.Get("/", cfg.RecordingHandler.List)
		r.Get("/{videoID}", cfg.RecordingHandler.Get)
		r.Delete("/{videoID}", cfg.RecordingHandler.Delete)
		r.Post("/{videoID}/download", cfg.RecordingHandler.Download)
		r.Post("/{videoID}/chunks", cfg.RecordingHandler.PrepareChunks)
		r.Post("/{videoID}/transcribe", cfg.TranscriptionHandler.Process)
		r.Get("/{videoID}/transcript", cfg.TranscriptionHandler.Get)
		r.Post("/{videoID}/questions", cfg.QuestionHandler.Generate)
		r.Get("/{videoID}/questions", cfg.QuestionHandler.List)
	})

	r.Post("/transcriptions/batch", cfg.TranscriptionHandler.ProcessBatch)
	r.Get("/generations/{generationID}", cfg.QuestionHandler.Get)

	return r
}
