package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"decklens/internal/domain"
)

// AnalysisRepository defines the contract for analysis record persistence.
type AnalysisRepository interface {
	Create(ctx context.Context, rec *domain.AnalysisRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.AnalysisRecord, int, error)
	Update(ctx context.Context, rec *domain.AnalysisRecord) error
	// ClaimQueued atomically moves up to limit queued records whose
	// retry_after has passed into processing and returns them. Safe to call
	// from concurrent workers.
	ClaimQueued(ctx context.Context, now time.Time, limit int) ([]domain.AnalysisRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
