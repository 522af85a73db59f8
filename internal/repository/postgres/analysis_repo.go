package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"decklens/internal/domain"
	"decklens/internal/port"
)

type analysisRepo struct {
	db *sqlx.DB
}

// NewAnalysisRepo creates a new PostgreSQL-backed AnalysisRepository.
func NewAnalysisRepo(db *sqlx.DB) port.AnalysisRepository {
	return &analysisRepo{db: db}
}

func (r *analysisRepo) Create(ctx context.Context, rec *domain.AnalysisRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `INSERT INTO analyses (
		id, file_name, file_size, s3_bucket, s3_key,
		status, force_ocr, enrich_entities, notify_email,
		analysis, enrichment, page_count, method_counts, model_used,
		error_detail, retry_after, attempts,
		created_at, updated_at, completed_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12, $13, $14,
		$15, $16, $17,
		$18, $19, $20
	)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.FileName, rec.FileSize, rec.S3Bucket, rec.S3Key,
		rec.Status, rec.ForceOCR, rec.EnrichEntities, rec.NotifyEmail,
		rec.Analysis, rec.Enrichment, rec.PageCount, rec.MethodCounts, rec.ModelUsed,
		rec.ErrorDetail, rec.RetryAfter, rec.Attempts,
		rec.CreatedAt, rec.UpdatedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("analysisRepo.Create: %w", err)
	}
	return nil
}

func (r *analysisRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM analyses WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("analysisRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *analysisRepo) List(ctx context.Context, offset, limit int) ([]domain.AnalysisRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM analyses")
	if err != nil {
		return nil, 0, fmt.Errorf("analysisRepo.List count: %w", err)
	}

	var recs []domain.AnalysisRecord
	err = r.db.SelectContext(ctx, &recs,
		"SELECT * FROM analyses ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("analysisRepo.List: %w", err)
	}
	return recs, total, nil
}

func (r *analysisRepo) Update(ctx context.Context, rec *domain.AnalysisRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE analyses SET
			s3_bucket = $1, s3_key = $2, status = $3,
			analysis = $4, enrichment = $5, page_count = $6,
			method_counts = $7, model_used = $8, error_detail = $9,
			retry_after = $10, attempts = $11,
			updated_at = $12, completed_at = $13
		 WHERE id = $14`,
		rec.S3Bucket, rec.S3Key, rec.Status,
		rec.Analysis, rec.Enrichment, rec.PageCount,
		rec.MethodCounts, rec.ModelUsed, rec.ErrorDetail,
		rec.RetryAfter, rec.Attempts,
		rec.UpdatedAt, rec.CompletedAt,
		rec.ID)
	if err != nil {
		return fmt.Errorf("analysisRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *analysisRepo) ClaimQueued(ctx context.Context, now time.Time, limit int) ([]domain.AnalysisRecord, error) {
	// SKIP LOCKED keeps concurrent workers from claiming the same rows.
	query := `UPDATE analyses SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM analyses
			WHERE status = $3 AND (retry_after IS NULL OR retry_after <= $4)
			ORDER BY created_at ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	var recs []domain.AnalysisRecord
	err := r.db.SelectContext(ctx, &recs, query,
		domain.AnalysisStatusProcessing, now.UTC(), domain.AnalysisStatusQueued, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("analysisRepo.ClaimQueued: %w", err)
	}
	return recs, nil
}

func (r *analysisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("analysisRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
