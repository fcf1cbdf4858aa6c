// Package progress is the single write path from orchestrator steps into the
// session's mutable output field.
package progress

import (
	"context"
	"encoding/json"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/pkg/logger"
	"ai-eventplanner-be/pkg/planner"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type Reporter interface {
	Report(ctx context.Context, sessionID uuid.UUID, progress int, stage string)
}

// WakeupPayload travels on the in-process progress topic so open streams can
// poll immediately instead of sleeping out their full interval.
type WakeupPayload struct {
	SessionID uuid.UUID `json:"session_id"`
}

// StoreReporter overwrites the session output wholesale on every tick.
// Store failures are swallowed: losing a progress tick degrades UX, not
// correctness, and must never abort the orchestrator.
type StoreReporter struct {
	store  planner.SessionStore
	bus    message.Publisher // optional wake-up bus, may be nil
	logger logger.ILogger
}

func NewStoreReporter(store planner.SessionStore, bus message.Publisher, log logger.ILogger) *StoreReporter {
	return &StoreReporter{
		store:  store,
		bus:    bus,
		logger: log,
	}
}

func (r *StoreReporter) Report(ctx context.Context, sessionID uuid.UUID, progress int, stage string) {
	output := &entity.ProcessedOutput{
		Progress:  progress,
		Stage:     stage,
		Timestamp: time.Now(),
	}

	if err := r.store.UpdateOutput(ctx, sessionID, output); err != nil {
		r.logger.Warn("ProgressReporter", "Failed to persist progress tick", map[string]interface{}{
			"session_id": sessionID,
			"progress":   progress,
			"stage":      stage,
			"error":      err.Error(),
		})
		return
	}

	r.wake(sessionID)
}

// wake nudges any open stream for this session. Best-effort: polling remains
// the portable baseline when the bus is absent or full.
func (r *StoreReporter) wake(sessionID uuid.UUID) {
	if r.bus == nil {
		return
	}
	payload, err := json.Marshal(WakeupPayload{SessionID: sessionID})
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := r.bus.Publish(constant.TopicPlannerProgress, msg); err != nil {
		r.logger.Warn("ProgressReporter", "Failed to publish progress wakeup", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}
