package contract

import (
	"context"

	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ProcessingSessionRepository persists planner runs. Get returns (nil, nil)
// when the id resolves to nothing; callers must handle the not-found case
// without treating it as a read error.
//
// Terminal sessions (COMPLETED/FAILED) are immutable: SetStatus and
// UpdateOutput silently no-op once a terminal status is persisted, and
// Finalize wins exactly once.
type ProcessingSessionRepository interface {
	Create(ctx context.Context, session *entity.ProcessingSession) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ProcessingSession, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateOutput(ctx context.Context, id uuid.UUID, output *entity.ProcessedOutput) error
	Finalize(ctx context.Context, session *entity.ProcessingSession) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProcessingSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
