package contract

import (
	"context"

	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PlannedEventRepository interface {
	Create(ctx context.Context, event *entity.PlannedEvent) error
	CreateBatch(ctx context.Context, events []*entity.PlannedEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PlannedEvent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PlannedEvent, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
