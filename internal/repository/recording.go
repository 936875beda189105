package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

type RecordingRepository struct {
	db dbtx
}

func NewRecordingRepository(pool *pgxpool.Pool) *RecordingRepository {
	return &RecordingRepository{db: pool}
}

func NewRecordingRepositoryWithTx(tx pgx.Tx) *RecordingRepository {
	return &RecordingRepository{db: tx}
}

func (r *RecordingRepository) Create(ctx context.Context, rec *domain.Recording) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO recordings (video_id, title, thumbnail_url, file_path, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		rec.VideoID, rec.Title, nullableString(rec.ThumbnailURL), nullableString(rec.FilePath), rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrRecordingAlreadyExists
	}
	return err
}

// Upsert inserts the recording or refreshes its metadata when the video id
// is already known. The file path is only overwritten when non-empty so a
// metadata refresh cannot undo a completed download.
func (r *RecordingRepository) Upsert(ctx context.Context, rec *domain.Recording) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO recordings (video_id, title, thumbnail_url, file_path, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (video_id) DO UPDATE SET
		   title = EXCLUDED.title,
		   thumbnail_url = EXCLUDED.thumbnail_url,
		   file_path = COALESCE(EXCLUDED.file_path, recordings.file_path)
		 RETURNING id`,
		rec.VideoID, rec.Title, nullableString(rec.ThumbnailURL), nullableString(rec.FilePath), rec.CreatedAt,
	).Scan(&rec.ID)
}

func (r *RecordingRepository) GetByVideoID(ctx context.Context, videoID string) (*domain.Recording, error) {
	var rec domain.Recording
	var thumbnail, filePath *string
	err := r.db.QueryRow(ctx,
		`SELECT id, video_id, title, thumbnail_url, file_path, created_at
		 FROM recordings WHERE video_id = $1`,
		videoID,
	).Scan(&rec.ID, &rec.VideoID, &rec.Title, &thumbnail, &filePath, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordingNotFound
		}
		return nil, err
	}
	if thumbnail != nil {
		rec.ThumbnailURL = *thumbnail
	}
	if filePath != nil {
		rec.FilePath = *filePath
	}
	return &rec, nil
}

func (r *RecordingRepository) List(ctx context.Context) ([]*domain.Recording, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, video_id, title, thumbnail_url, file_path, created_at
		 FROM recordings ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordingRows(rows)
}

// ListPendingTranscription returns downloaded recordings that have no
// transcript yet, oldest first.
func (r *RecordingRepository) ListPendingTranscription(ctx context.Context, limit int) ([]*domain.Recording, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.video_id, r.title, r.thumbnail_url, r.file_path, r.created_at
		 FROM recordings r
		 WHERE r.file_path IS NOT NULL
		   AND NOT EXISTS (SELECT 1 FROM transcripts t WHERE t.video_id = r.video_id)
		 ORDER BY r.created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordingRows(rows)
}

func (r *RecordingRepository) UpdateFilePath(ctx context.Context, videoID, filePath string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE recordings SET file_path = $1 WHERE video_id = $2`,
		nullableString(filePath), videoID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRecordingNotFound
	}
	return nil
}

// Delete removes the recording row; chunks and transcripts cascade.
func (r *RecordingRepository) Delete(ctx context.Context, videoID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM recordings WHERE video_id = $1`, videoID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRecordingNotFound
	}
	return nil
}

func scanRecordingRows(rows pgx.Rows) ([]*domain.Recording, error) {
	var results []*domain.Recording
	for rows.Next() {
		var rec domain.Recording
		var thumbnail, filePath *string
		if err := rows.Scan(&rec.ID, &rec.VideoID, &rec.Title, &thumbnail, &filePath, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if thumbnail != nil {
			rec.ThumbnailURL = *thumbnail
		}
		if filePath != nil {
			rec.FilePath = *filePath
		}
		results = append(results, &rec)
	}
	return results, rows.Err()
}
