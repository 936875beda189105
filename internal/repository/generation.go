package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

// GenerationRepository handles persistence of question-generation runs and
// the questions they produce.
type GenerationRepository struct {
	db dbtx
}

func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepository {
	return &GenerationRepository{db: pool}
}

func NewGenerationRepositoryWithTx(tx pgx.Tx) *GenerationRepository {
	return &GenerationRepository{db: tx}
}

func (r *GenerationRepository) Create(ctx context.Context, g *domain.Generation) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO generations (video_id, transcript_id, provider, model, question_count, status, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		g.VideoID, g.TranscriptID, g.Provider, g.Model, g.QuestionCount, g.Status, nullableString(g.Error), g.CreatedAt,
	).Scan(&g.ID)
}

func (r *GenerationRepository) GetByID(ctx context.Context, id int64) (*domain.Generation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, video_id, transcript_id, provider, model, question_count, status, error, created_at, completed_at
		 FROM generations WHERE id = $1`,
		id,
	)
	return scanGeneration(row)
}

func (r *GenerationRepository) ListByVideoID(ctx context.Context, videoID string) ([]*domain.Generation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, video_id, transcript_id, provider, model, question_count, status, error, created_at, completed_at
		 FROM generations WHERE video_id = $1 ORDER BY created_at DESC`,
		videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// UpdateStatus transitions a generation run. completedAt is only written for
// terminal states; errMsg is cleared when empty.
func (r *GenerationRepository) UpdateStatus(ctx context.Context, id int64, status domain.GenerationStatus, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE generations SET
		   status = $1,
		   error = $2,
		   completed_at = CASE WHEN $1 IN ('completed', 'failed') THEN NOW() ELSE completed_at END
		 WHERE id = $3`,
		status, nullableString(errMsg), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrGenerationNotFound
	}
	return nil
}

// CreateQuestions inserts the run's questions. Callers run this inside a
// transaction together with the status transition to completed.
func (r *GenerationRepository) CreateQuestions(ctx context.Context, questions []*domain.Question) error {
	for _, q := range questions {
		err := r.db.QueryRow(ctx,
			`INSERT INTO questions (generation_id, video_id, text, answer, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			q.GenerationID, q.VideoID, q.Text, q.Answer, q.CreatedAt,
		).Scan(&q.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *GenerationRepository) ListQuestions(ctx context.Context, generationID int64) ([]*domain.Question, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, generation_id, video_id, text, answer, created_at
		 FROM questions WHERE generation_id = $1 ORDER BY id ASC`,
		generationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.GenerationID, &q.VideoID, &q.Text, &q.Answer, &q.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &q)
	}
	return results, rows.Err()
}

func scanGeneration(row pgx.Row) (*domain.Generation, error) {
	var g domain.Generation
	var errMsg *string
	err := row.Scan(&g.ID, &g.VideoID, &g.TranscriptID, &g.Provider, &g.Model, &g.QuestionCount, &g.Status, &errMsg, &g.CreatedAt, &g.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGenerationNotFound
		}
		return nil, err
	}
	if errMsg != nil {
		g.Error = *errMsg
	}
	return &g, nil
}
