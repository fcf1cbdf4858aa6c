package memory

import (
	"context"
	"testing"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestSession() *entity.ProcessingSession {
	return &entity.ProcessingSession{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		UserInput: "lunch with sam friday",
		Status:    constant.SessionStatusPending,
	}
}

func TestSessionStoreReadYourWrites(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	session := newTestSession()

	assert.NoError(t, store.Create(ctx, session))

	got, err := store.Get(ctx, session.Id)
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, session.UserInput, got.UserInput)

	assert.NoError(t, store.SetStatus(ctx, session.Id, constant.SessionStatusProcessing))
	assert.NoError(t, store.UpdateOutput(ctx, session.Id, &entity.ProcessedOutput{
		Progress:  20,
		Stage:     constant.StageAnalyzingIntent,
		Timestamp: time.Now(),
	}))

	got, err = store.Get(ctx, session.Id)
	assert.NoError(t, err)
	assert.Equal(t, constant.SessionStatusProcessing, got.Status)
	assert.Equal(t, 20, got.Output.Progress)
}

func TestSessionStoreGetUnknownID(t *testing.T) {
	store := NewSessionStore()

	got, err := store.Get(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStoreReturnsCopies(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	session := newTestSession()
	assert.NoError(t, store.Create(ctx, session))

	first, _ := store.Get(ctx, session.Id)
	first.Status = "MUTATED"

	second, _ := store.Get(ctx, session.Id)
	assert.Equal(t, constant.SessionStatusPending, second.Status)
}

func TestSessionStoreTerminalImmutability(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	session := newTestSession()
	assert.NoError(t, store.Create(ctx, session))

	session.Status = constant.SessionStatusCompleted
	session.Output = &entity.ProcessedOutput{Progress: 100, Stage: constant.StageDone, Timestamp: time.Now()}
	assert.NoError(t, store.Finalize(ctx, session))

	// Late writer ticks must be silently dropped.
	assert.NoError(t, store.SetStatus(ctx, session.Id, constant.SessionStatusProcessing))
	assert.NoError(t, store.UpdateOutput(ctx, session.Id, &entity.ProcessedOutput{Progress: 40}))

	got, _ := store.Get(ctx, session.Id)
	assert.Equal(t, constant.SessionStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Output.Progress)
}

func TestSessionStoreFinalizeWinsOnce(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	session := newTestSession()
	assert.NoError(t, store.Create(ctx, session))

	session.Status = constant.SessionStatusFailed
	reason := constant.FailureScheduleValidation
	session.ErrorMessage = &reason
	assert.NoError(t, store.Finalize(ctx, session))

	// A second terminal write is a no-op, not an overwrite.
	second := *session
	second.Status = constant.SessionStatusCompleted
	second.ErrorMessage = nil
	assert.NoError(t, store.Finalize(ctx, &second))

	got, _ := store.Get(ctx, session.Id)
	assert.Equal(t, constant.SessionStatusFailed, got.Status)
	assert.Equal(t, reason, *got.ErrorMessage)
}

func TestSessionStoreFinalizeUnknownSession(t *testing.T) {
	store := NewSessionStore()
	session := newTestSession()
	session.Status = constant.SessionStatusCompleted

	assert.Error(t, store.Finalize(context.Background(), session))
}
