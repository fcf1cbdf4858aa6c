package implementation

import (
	"context"
	"errors"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/mapper"
	"ai-eventplanner-be/internal/model"
	"ai-eventplanner-be/internal/repository/contract"
	"ai-eventplanner-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var terminalStatuses = []string{constant.SessionStatusCompleted, constant.SessionStatusFailed}

type ProcessingSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlannerMapper
}

func NewProcessingSessionRepository(db *gorm.DB) contract.ProcessingSessionRepository {
	return &ProcessingSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlannerMapper(),
	}
}

func (r *ProcessingSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProcessingSessionRepositoryImpl) Create(ctx context.Context, session *entity.ProcessingSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *ProcessingSessionRepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*entity.ProcessingSession, error) {
	var m model.ProcessingSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

// SetStatus transitions a non-terminal session. Writes against terminal
// sessions match zero rows, which keeps the terminal state idempotent.
func (r *ProcessingSessionRepositoryImpl) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.ProcessingSession{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// UpdateOutput overwrites the opaque output blob wholesale.
func (r *ProcessingSessionRepositoryImpl) UpdateOutput(ctx context.Context, id uuid.UUID, output *entity.ProcessedOutput) error {
	return r.db.WithContext(ctx).
		Model(&model.ProcessingSession{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(map[string]interface{}{
			"processed_output": r.mapper.OutputToJSON(output),
			"updated_at":       time.Now(),
		}).Error
}

// Finalize writes the one terminal outcome: status, output, error message and
// success metrics in a single update. A second Finalize matches zero rows.
func (r *ProcessingSessionRepositoryImpl) Finalize(ctx context.Context, session *entity.ProcessingSession) error {
	return r.db.WithContext(ctx).
		Model(&model.ProcessingSession{}).
		Where("id = ? AND status NOT IN ?", session.Id, terminalStatuses).
		Updates(map[string]interface{}{
			"status":             session.Status,
			"processed_output":   r.mapper.OutputToJSON(session.Output),
			"error_message":      session.ErrorMessage,
			"processing_time_ms": session.ProcessingTimeMs,
			"tokens_used":        session.TokensUsed,
			"confidence":         session.Confidence,
			"updated_at":         time.Now(),
		}).Error
}

func (r *ProcessingSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProcessingSession, error) {
	var models []*model.ProcessingSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ProcessingSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *ProcessingSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ProcessingSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
