package mapper

import (
	"encoding/json"
	"time"

	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/model"

	"gorm.io/datatypes"
)

type PlannerMapper struct{}

func NewPlannerMapper() *PlannerMapper {
	return &PlannerMapper{}
}

// Session Mappers

func (m *PlannerMapper) SessionToEntity(s *model.ProcessingSession) *entity.ProcessingSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	var output *entity.ProcessedOutput
	if len(s.ProcessedOutput) > 0 {
		var o entity.ProcessedOutput
		// A malformed blob is treated as absent output rather than a read error;
		// the stream falls back to status-only observation.
		if err := json.Unmarshal(s.ProcessedOutput, &o); err == nil {
			output = &o
		}
	}

	return &entity.ProcessingSession{
		Id:               s.Id,
		UserId:           s.UserId,
		UserInput:        s.UserInput,
		CalendarContext:  s.CalendarContext,
		Status:           s.Status,
		Output:           output,
		Model:            s.Model,
		Provider:         s.Provider,
		ProcessingTimeMs: s.ProcessingTimeMs,
		TokensUsed:       s.TokensUsed,
		Confidence:       s.Confidence,
		ErrorMessage:     s.ErrorMessage,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *PlannerMapper) SessionToModel(s *entity.ProcessingSession) *model.ProcessingSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ProcessingSession{
		Id:               s.Id,
		UserId:           s.UserId,
		UserInput:        s.UserInput,
		CalendarContext:  s.CalendarContext,
		Status:           s.Status,
		ProcessedOutput:  m.OutputToJSON(s.Output),
		Model:            s.Model,
		Provider:         s.Provider,
		ProcessingTimeMs: s.ProcessingTimeMs,
		TokensUsed:       s.TokensUsed,
		Confidence:       s.Confidence,
		ErrorMessage:     s.ErrorMessage,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

// OutputToJSON serializes the full output object. Writers overwrite the blob
// wholesale; there is no partial merge.
func (m *PlannerMapper) OutputToJSON(o *entity.ProcessedOutput) datatypes.JSON {
	if o == nil {
		return nil
	}
	data, err := json.Marshal(o)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

// Event Mappers

func (m *PlannerMapper) EventToEntity(e *model.PlannedEvent) *entity.PlannedEvent {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.PlannedEvent{
		Id:          e.Id,
		SessionId:   e.SessionId,
		UserId:      e.UserId,
		Emoji:       e.Emoji,
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Timezone:    e.Timezone,
		IsAllDay:    e.IsAllDay,
		Location:    e.Location,
		Confidence:  e.Confidence,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *PlannerMapper) EventToModel(e *entity.PlannedEvent) *model.PlannedEvent {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.PlannedEvent{
		Id:          e.Id,
		SessionId:   e.SessionId,
		UserId:      e.UserId,
		Emoji:       e.Emoji,
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Timezone:    e.Timezone,
		IsAllDay:    e.IsAllDay,
		Location:    e.Location,
		Confidence:  e.Confidence,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}
