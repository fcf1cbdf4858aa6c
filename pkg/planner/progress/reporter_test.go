package progress

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func TestReportOverwritesOutput(t *testing.T) {
	store := memory.NewSessionStore()
	ctx := context.Background()
	session := &entity.ProcessingSession{Id: uuid.New(), UserId: uuid.New(), Status: constant.SessionStatusProcessing}
	assert.NoError(t, store.Create(ctx, session))

	r := NewStoreReporter(store, nil, nopLogger{})
	r.Report(ctx, session.Id, constant.ProgressIntent, constant.StageAnalyzingIntent)
	r.Report(ctx, session.Id, constant.ProgressStructure, constant.StagePlanningStructure)

	got, _ := store.Get(ctx, session.Id)
	assert.Equal(t, constant.ProgressStructure, got.Output.Progress)
	assert.Equal(t, constant.StagePlanningStructure, got.Output.Stage)
	assert.False(t, got.Output.Timestamp.IsZero())
}

func TestReportSwallowsUnknownSession(t *testing.T) {
	store := memory.NewSessionStore()
	r := NewStoreReporter(store, nil, nopLogger{})

	// Must not panic or error the caller; reporting is best-effort.
	r.Report(context.Background(), uuid.New(), 20, constant.StageAnalyzingIntent)
}

func TestReportPublishesWakeup(t *testing.T) {
	store := memory.NewSessionStore()
	ctx := context.Background()
	session := &entity.ProcessingSession{Id: uuid.New(), UserId: uuid.New(), Status: constant.SessionStatusProcessing}
	assert.NoError(t, store.Create(ctx, session))

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	messages, err := bus.Subscribe(ctx, constant.TopicPlannerProgress)
	assert.NoError(t, err)

	r := NewStoreReporter(store, bus, nopLogger{})
	r.Report(ctx, session.Id, constant.ProgressIntent, constant.StageAnalyzingIntent)

	select {
	case msg := <-messages:
		var payload WakeupPayload
		assert.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, session.Id, payload.SessionID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no wakeup message published")
	}
}
