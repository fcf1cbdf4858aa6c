// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/repository/specification"
	"ai-eventplanner-be/internal/repository/unitofwork"
	"ai-eventplanner-be/pkg/planner/progress"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService materializes a completed session's event drafts into
// planned_events rows. It runs off the in-process completion topic so the
// HTTP path never blocks on this write.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload progress.WakeupPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal completion message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Materializing planned events for session %s", payload.SessionID)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ProcessingSessionRepository().Get(ctx, payload.SessionID)
	if err != nil {
		log.Printf("[ERROR] Failed to get session %s: %v", payload.SessionID, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if session == nil {
		log.Printf("[ERROR] Session not found: %s", payload.SessionID)
		msg.Ack() // Session deleted? Ack.
		return
	}
	if session.Status != constant.SessionStatusCompleted || session.Output == nil {
		// Only completed sessions carry event drafts worth persisting.
		log.Printf("[WARN] Session %s is %s, nothing to materialize", session.Id, session.Status)
		msg.Ack()
		return
	}

	newEvents := make([]*entity.PlannedEvent, 0, len(session.Output.Results))
	for i, draft := range session.Output.Results {
		start, err := time.Parse(time.RFC3339, draft.StartTime)
		if err != nil {
			log.Printf("[ERROR] Draft %d of session %s has bad startTime %q", i, session.Id, draft.StartTime)
			msg.Ack() // Validation already passed once; a bad draft here is not retriable.
			return
		}
		end, err := time.Parse(time.RFC3339, draft.EndTime)
		if err != nil {
			log.Printf("[ERROR] Draft %d of session %s has bad endTime %q", i, session.Id, draft.EndTime)
			msg.Ack()
			return
		}

		var location *string
		if draft.Location != "" {
			loc := draft.Location
			location = &loc
		}

		newEvents = append(newEvents, &entity.PlannedEvent{
			Id:          uuid.New(),
			SessionId:   session.Id,
			UserId:      session.UserId,
			Emoji:       draft.Emoji,
			Title:       draft.Title,
			Description: draft.Description,
			StartTime:   start,
			EndTime:     end,
			Timezone:    draft.Timezone,
			IsAllDay:    draft.IsAllDay,
			Location:    location,
			Confidence:  draft.Confidence,
			CreatedAt:   time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Redelivery safety: drop whatever a previous attempt wrote for this
	// session before inserting the fresh batch.
	existing, err := uow.PlannedEventRepository().FindAll(ctx, specification.BySessionID{SessionID: session.Id})
	if err != nil {
		log.Printf("[ERROR] Failed to check existing events for session %s: %v", session.Id, err)
		msg.Nack()
		return
	}
	for _, old := range existing {
		if err := uow.PlannedEventRepository().Delete(ctx, old.Id); err != nil {
			log.Printf("[ERROR] Failed to delete stale event %s: %v", old.Id, err)
			msg.Nack()
			return
		}
	}

	if len(newEvents) > 0 {
		if err := uow.PlannedEventRepository().CreateBatch(ctx, newEvents); err != nil {
			log.Printf("[ERROR] Failed to create planned events: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Session %s materialized: %d planned events", session.Id, len(newEvents))
	msg.Ack()
}
