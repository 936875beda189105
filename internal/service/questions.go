package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

// GeneratedQuestion is one question/answer pair produced by the model.
type GeneratedQuestion struct {
	Question string
	Answer   string
}

// QuestionProvider generates exam-style questions from transcript text.
type QuestionProvider interface {
	GenerateQuestions(ctx context.Context, transcriptText string, count int) ([]GeneratedQuestion, error)
	Name() (provider, model string)
}

// QuestionService runs question-generation over completed transcripts and
// records each run with its outcome.
type QuestionService struct {
	provider    QuestionProvider
	txRunner    TxRunner
	transcripts TranscriptRepositoryInterface
	generations GenerationRepositoryInterface
}

func NewQuestionService(
	provider QuestionProvider,
	txRunner TxRunner,
	transcripts TranscriptRepositoryInterface,
	generations GenerationRepositoryInterface,
) *QuestionService {
	return &QuestionService{
		provider:    provider,
		txRunner:    txRunner,
		transcripts: transcripts,
		generations: generations,
	}
}

// Generate produces count questions from the recording's transcript. The
// run is recorded up front so failures stay queryable; questions and the
// completed status commit together.
func (s *QuestionService) Generate(ctx context.Context, videoID string, count int) (*domain.Generation, []*domain.Question, error) {
	transcript, err := s.transcripts.GetByVideoID(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}
	if transcript.Text == "" {
		return nil, nil, domain.NewDomainError(domain.ErrCodeValidation, "transcript has no text to generate questions from")
	}

	providerName, model := s.provider.Name()
	gen := &domain.Generation{
		VideoID:       videoID,
		TranscriptID:  transcript.ID,
		Provider:      providerName,
		Model:         model,
		QuestionCount: count,
		Status:        domain.GenerationStatusRunning,
		CreatedAt:     time.Now().UTC(),
	}
	if err := domain.ValidateGeneration(gen); err != nil {
		return nil, nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid generation request", err)
	}
	if err := s.generations.Create(ctx, gen); err != nil {
		return nil, nil, err
	}

	generated, err := s.provider.GenerateQuestions(ctx, transcript.Text, count)
	if err != nil {
		s.markFailed(ctx, gen.ID, err)
		return nil, nil, err
	}
	if len(generated) == 0 {
		err := domain.NewDomainError(domain.ErrCodeInternalError, "model produced no questions")
		s.markFailed(ctx, gen.ID, err)
		return nil, nil, err
	}

	now := time.Now().UTC()
	questions := make([]*domain.Question, 0, len(generated))
	for _, q := range generated {
		questions = append(questions, &domain.Question{
			GenerationID: gen.ID,
			VideoID:      videoID,
			Text:         q.Question,
			Answer:       q.Answer,
			CreatedAt:    now,
		})
	}

	err = withStorageRetry(ctx, func() error {
		return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			if err := repos.Generations().CreateQuestions(ctx, questions); err != nil {
				return err
			}
			return repos.Generations().UpdateStatus(ctx, gen.ID, domain.GenerationStatusCompleted, "")
		})
	})
	if err != nil {
		s.markFailed(ctx, gen.ID, err)
		return nil, nil, err
	}

	gen.Status = domain.GenerationStatusCompleted
	return gen, questions, nil
}

func (s *QuestionService) GetGeneration(ctx context.Context, id int64) (*domain.Generation, []*domain.Question, error) {
	gen, err := s.generations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.generations.ListQuestions(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return gen, questions, nil
}

func (s *QuestionService) ListGenerations(ctx context.Context, videoID string) ([]*domain.Generation, error) {
	return s.generations.ListByVideoID(ctx, videoID)
}

func (s *QuestionService) markFailed(ctx context.Context, id int64, cause error) {
	msg := fmt.Sprintf("%v", cause)
	if err := s.generations.UpdateStatus(ctx, id, domain.GenerationStatusFailed, msg); err != nil {
		// The primary error is already on its way to the caller.
		log.Printf("questions: marking generation %d failed: %v", id, err)
	}
}
