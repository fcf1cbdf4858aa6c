// FILE: internal/service/alert_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/internal/pkg/logger"
	"ai-eventplanner-be/pkg/events"
	pktNats "ai-eventplanner-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
)

// AlertDelivery defines how to push real-time plan alerts.
// Typically implemented by the WebSocket Hub.
type AlertDelivery interface {
	Send(userID uuid.UUID, alert dto.PlanAlert)
}

// AlertService turns terminal plan events from the NATS bus into websocket
// pushes, so a dashboard learns about the outcome even with no progress
// stream open.
type AlertService struct {
	subscriber *pktNats.Subscriber
	delivery   AlertDelivery
	logger     logger.ILogger
}

func NewAlertService(sub *pktNats.Subscriber, delivery AlertDelivery, log logger.ILogger) *AlertService {
	return &AlertService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *AlertService) Start() {
	err := s.subscriber.Subscribe("events.>", "plan-alert-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("AlertService", "Failed to start alert subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("AlertService", "Alert service started, listening to events.>", nil)
}

func (s *AlertService) handleEvent(ctx context.Context, event events.Event) error {
	switch event.EventType() {
	case constant.EventPlanCompleted, constant.EventPlanFailed:
	default:
		// Not ours; ack and move on.
		return nil
	}

	payload := event.Payload()

	userIDStr, _ := payload["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		s.logger.Warn("AlertService", fmt.Sprintf("Event %s has no valid user_id", event.EventType()), map[string]interface{}{"payload": payload})
		return nil
	}

	sessionIDStr, _ := payload["session_id"].(string)
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		s.logger.Warn("AlertService", fmt.Sprintf("Event %s has no valid session_id", event.EventType()), map[string]interface{}{"payload": payload})
		return nil
	}

	alert := dto.PlanAlert{
		SessionId:  sessionID,
		OccurredAt: time.Now(),
	}

	if event.EventType() == constant.EventPlanCompleted {
		alert.Status = constant.SessionStatusCompleted
		// JSON numbers arrive as float64
		if count, ok := payload["event_count"].(float64); ok {
			alert.EventCount = int(count)
		}
	} else {
		alert.Status = constant.SessionStatusFailed
	}

	if s.delivery != nil {
		s.delivery.Send(userID, alert)
	}

	s.logger.Info("AlertService", "Plan alert delivered", map[string]interface{}{
		"session_id": sessionID, "user_id": userID, "status": alert.Status,
	})
	return nil
}
