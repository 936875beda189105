package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

// ChunkRepository handles persistence of materialized audio chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// CreateBatch inserts one row per chunk. Callers run this inside a
// transaction so a storage failure never leaves a partial chunk set behind.
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []*domain.Chunk) error {
	for _, c := range chunks {
		err := r.db.QueryRow(ctx,
			`INSERT INTO chunks (video_id, chunk_index, file_path, start_time, end_time, duration, file_size, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id`,
			c.VideoID, c.ChunkIndex, c.FilePath, c.StartTime, c.EndTime, c.Duration, c.FileSize, c.CreatedAt,
		).Scan(&c.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByVideoID returns the recording's chunks ordered by chunk index.
func (r *ChunkRepository) ListByVideoID(ctx context.Context, videoID string) ([]*domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, video_id, chunk_index, file_path, start_time, end_time, duration, file_size, created_at
		 FROM chunks WHERE video_id = $1 ORDER BY chunk_index ASC`,
		videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.VideoID, &c.ChunkIndex, &c.FilePath, &c.StartTime, &c.EndTime, &c.Duration, &c.FileSize, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// DeleteByVideoID removes all chunk rows for a recording and returns the
// number of rows removed.
func (r *ChunkRepository) DeleteByVideoID(ctx context.Context, videoID string) (int, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE video_id = $1`, videoID)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
