package implementation

import (
	"context"
	"errors"

	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/mapper"
	"ai-eventplanner-be/internal/model"
	"ai-eventplanner-be/internal/repository/contract"
	"ai-eventplanner-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlannedEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlannerMapper
}

func NewPlannedEventRepository(db *gorm.DB) contract.PlannedEventRepository {
	return &PlannedEventRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlannerMapper(),
	}
}

func (r *PlannedEventRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PlannedEventRepositoryImpl) Create(ctx context.Context, event *entity.PlannedEvent) error {
	m := r.mapper.EventToModel(event)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*event = *r.mapper.EventToEntity(m)
	return nil
}

func (r *PlannedEventRepositoryImpl) CreateBatch(ctx context.Context, events []*entity.PlannedEvent) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]*model.PlannedEvent, len(events))
	for i, e := range events {
		models[i] = r.mapper.EventToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*events[i] = *r.mapper.EventToEntity(m)
	}
	return nil
}

func (r *PlannedEventRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.PlannedEvent{}, id).Error
}

func (r *PlannedEventRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PlannedEvent, error) {
	var m model.PlannedEvent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EventToEntity(&m), nil
}

func (r *PlannedEventRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PlannedEvent, error) {
	var models []*model.PlannedEvent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.PlannedEvent, len(models))
	for i, m := range models {
		entities[i] = r.mapper.EventToEntity(m)
	}
	return entities, nil
}

func (r *PlannedEventRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.PlannedEvent{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
