// FILE: internal/service/planner_service.go
package service

import (
	"context"
	"log"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/repository/specification"
	"ai-eventplanner-be/internal/repository/unitofwork"
	"ai-eventplanner-be/pkg/planner"
	"ai-eventplanner-be/pkg/planner/pipeline"

	"github.com/google/uuid"
)

type IPlannerService interface {
	// ProcessInput accepts the input, creates the PENDING session and kicks
	// off the pipeline in the background. It returns before any AI work runs.
	ProcessInput(ctx context.Context, userId uuid.UUID, req *dto.ProcessInputRequest) (*dto.ProcessInputResponse, error)
	GetSession(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.GetSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetSessionEvents(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.GetSessionEventsResponse, error)
}

type plannerService struct {
	store        planner.SessionStore
	uowFactory   unitofwork.RepositoryFactory
	orchestrator *pipeline.Orchestrator
	deadline     time.Duration
	modelName    string
	providerName string
}

func NewPlannerService(
	store planner.SessionStore,
	uowFactory unitofwork.RepositoryFactory,
	orchestrator *pipeline.Orchestrator,
	deadline time.Duration,
	modelName string,
	providerName string,
) IPlannerService {
	if deadline <= 0 {
		deadline = 5 * time.Minute
	}
	return &plannerService{
		store:        store,
		uowFactory:   uowFactory,
		orchestrator: orchestrator,
		deadline:     deadline,
		modelName:    modelName,
		providerName: providerName,
	}
}

func (s *plannerService) ProcessInput(ctx context.Context, userId uuid.UUID, req *dto.ProcessInputRequest) (*dto.ProcessInputResponse, error) {
	session := &entity.ProcessingSession{
		Id:              uuid.New(),
		UserId:          userId,
		UserInput:       req.UserInput,
		CalendarContext: req.CalendarContext,
		Status:          constant.SessionStatusPending,
		Model:           s.modelName,
		Provider:        s.providerName,
		CreatedAt:       time.Now(),
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}

	// The run detaches from the request context: the caller gets the session
	// id back immediately and the pipeline lives on its own deadline.
	go func(session *entity.ProcessingSession) {
		runCtx, cancel := context.WithTimeout(context.Background(), s.deadline)
		defer cancel()

		if err := s.orchestrator.Run(runCtx, session); err != nil {
			log.Printf("[ERROR] Planner run ended with failure for session %s: %v", session.Id, err)
		}
	}(session)

	return &dto.ProcessInputResponse{
		SessionId: session.Id,
		Status:    session.Status,
	}, nil
}

func (s *plannerService) GetSession(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.GetSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ProcessingSessionRepository().FindAll(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	session := sessions[0]

	res := dto.GetSessionResponse{
		Id:               session.Id,
		Status:           session.Status,
		Model:            session.Model,
		Provider:         session.Provider,
		ProcessingTimeMs: session.ProcessingTimeMs,
		TokensUsed:       session.TokensUsed,
		Confidence:       session.Confidence,
		ErrorMessage:     session.ErrorMessage,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}

	if session.Output != nil {
		res.Progress = session.Output.Progress
		res.Stage = session.Output.Stage
		for _, draft := range session.Output.Results {
			res.Results = append(res.Results, dto.EventDraftDTO{
				Emoji:       draft.Emoji,
				Title:       draft.Title,
				Description: draft.Description,
				StartTime:   draft.StartTime,
				EndTime:     draft.EndTime,
				Timezone:    draft.Timezone,
				IsAllDay:    draft.IsAllDay,
				Location:    draft.Location,
				Confidence:  draft.Confidence,
			})
		}
	}

	return &res, nil
}

func (s *plannerService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ProcessingSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, &dto.GetAllSessionsResponse{
			Id:        session.Id,
			UserInput: session.UserInput,
			Status:    session.Status,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}

	return result, nil
}

func (s *plannerService) GetSessionEvents(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.GetSessionEventsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Ownership check first; events carry the user id too but the session is
	// the authorization boundary.
	sessions, err := uow.ProcessingSessionRepository().FindAll(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	events, err := uow.PlannedEventRepository().FindAll(ctx,
		specification.BySessionID{SessionID: id},
		specification.OrderBy{Field: "start_time", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.GetSessionEventsResponse, 0, len(events))
	for _, event := range events {
		result = append(result, &dto.GetSessionEventsResponse{
			Id:          event.Id,
			Emoji:       event.Emoji,
			Title:       event.Title,
			Description: event.Description,
			StartTime:   event.StartTime,
			EndTime:     event.EndTime,
			Timezone:    event.Timezone,
			IsAllDay:    event.IsAllDay,
			Location:    event.Location,
			Confidence:  event.Confidence,
		})
	}

	return result, nil
}
