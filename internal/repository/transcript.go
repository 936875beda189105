package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
	"github.com/pgvector/pgvector-go"
)

// TranscriptRepository handles persistence of transcripts and their
// per-chunk child rows.
type TranscriptRepository struct {
	db dbtx
}

func NewTranscriptRepository(pool *pgxpool.Pool) *TranscriptRepository {
	return &TranscriptRepository{db: pool}
}

func NewTranscriptRepositoryWithTx(tx pgx.Tx) *TranscriptRepository {
	return &TranscriptRepository{db: tx}
}

// CreatePlaceholder inserts an empty transcript row for the recording so
// chunk transcripts have a stable parent id before any provider call runs.
func (r *TranscriptRepository) CreatePlaceholder(ctx context.Context, t *domain.Transcript) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO transcripts (video_id, text, embedding, created_at)
		 VALUES ($1, '', NULL, $2)
		 RETURNING id`,
		t.VideoID, t.CreatedAt,
	).Scan(&t.ID)
}

// UpdateContent sets the aggregated text and embedding on an existing
// transcript row.
func (r *TranscriptRepository) UpdateContent(ctx context.Context, id int64, text string, embedding []float32) error {
	var emb any
	if embedding != nil {
		emb = pgvector.NewVector(embedding)
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE transcripts SET text = $1, embedding = $2 WHERE id = $3`,
		text, emb, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrTranscriptNotFound
	}
	return nil
}

func (r *TranscriptRepository) GetByVideoID(ctx context.Context, videoID string) (*domain.Transcript, error) {
	var t domain.Transcript
	var emb *pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT id, video_id, text, embedding, created_at
		 FROM transcripts WHERE video_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		videoID,
	).Scan(&t.ID, &t.VideoID, &t.Text, &emb, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTranscriptNotFound
		}
		return nil, err
	}
	if emb != nil {
		t.Embedding = emb.Slice()
	}
	return &t, nil
}

// DeleteByVideoID removes the recording's transcript; chunk transcripts
// cascade. Missing rows are not an error, deletion is idempotent.
func (r *TranscriptRepository) DeleteByVideoID(ctx context.Context, videoID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM transcripts WHERE video_id = $1`, videoID)
	return err
}

// CreateChunkTranscript inserts the text and embedding for one chunk. The
// (transcript_id, chunk_id) pair is unique; a second insert for the same
// chunk returns domain.ErrChunkTranscriptAlreadyExists.
func (r *TranscriptRepository) CreateChunkTranscript(ctx context.Context, ct *domain.ChunkTranscript) error {
	var emb any
	if ct.Embedding != nil {
		emb = pgvector.NewVector(ct.Embedding)
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO chunk_transcripts (transcript_id, chunk_id, text, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		ct.TranscriptID, ct.ChunkID, ct.Text, emb, ct.CreatedAt,
	).Scan(&ct.ID)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrChunkTranscriptAlreadyExists
	}
	return err
}

// ListChunkTranscripts returns a transcript's chunk transcripts ordered by
// the owning chunk's index.
func (r *TranscriptRepository) ListChunkTranscripts(ctx context.Context, transcriptID int64) ([]*domain.ChunkTranscript, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ct.id, ct.transcript_id, ct.chunk_id, ct.text, ct.embedding, ct.created_at
		 FROM chunk_transcripts ct
		 JOIN chunks c ON c.id = ct.chunk_id
		 WHERE ct.transcript_id = $1
		 ORDER BY c.chunk_index ASC`,
		transcriptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.ChunkTranscript
	for rows.Next() {
		var ct domain.ChunkTranscript
		var emb *pgvector.Vector
		if err := rows.Scan(&ct.ID, &ct.TranscriptID, &ct.ChunkID, &ct.Text, &emb, &ct.CreatedAt); err != nil {
			return nil, err
		}
		if emb != nil {
			ct.Embedding = emb.Slice()
		}
		results = append(results, &ct)
	}
	return results, rows.Err()
}
