package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/repository/memory"
	"ai-eventplanner-be/pkg/planner/progress"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
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

func seedSession(t *testing.T, store *memory.SessionStore) *entity.ProcessingSession {
	t.Helper()
	session := &entity.ProcessingSession{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		UserInput: "team offsite next week",
		Status:    constant.SessionStatusProcessing,
	}
	assert.NoError(t, store.Create(context.Background(), session))
	return session
}

func collect(t *testing.T, p *Publisher, id uuid.UUID) ([]dto.ProgressUpdate, error) {
	t.Helper()
	var frames []dto.ProgressUpdate
	err := p.Stream(context.Background(), id, func(u dto.ProgressUpdate) error {
		frames = append(frames, u)
		return nil
	})
	return frames, err
}

func TestStreamEmitsDeltasUntilTerminal(t *testing.T) {
	store := memory.NewSessionStore()
	session := seedSession(t, store)
	ctx := context.Background()

	go func() {
		tick := func(p int, stage string) {
			time.Sleep(30 * time.Millisecond)
			_ = store.UpdateOutput(ctx, session.Id, &entity.ProcessedOutput{
				Progress: p, Stage: stage, Timestamp: time.Now(),
			})
		}
		tick(10, "a")
		tick(40, "b")

		time.Sleep(30 * time.Millisecond)
		session.Status = constant.SessionStatusCompleted
		session.Output = &entity.ProcessedOutput{Progress: 100, Stage: constant.StageDone, Timestamp: time.Now()}
		_ = store.Finalize(ctx, session)
	}()

	p := NewPublisher(store, nil, nopLogger{}, Config{PollInterval: 5 * time.Millisecond, MaxAttempts: 1000})
	frames, err := collect(t, p, session.Id)

	assert.NoError(t, err)
	// One frame per distinct (progress, stage), nothing for unchanged polls.
	assert.Len(t, frames, 3)
	assert.Equal(t, 10, frames[0].Progress)
	assert.Equal(t, 40, frames[1].Progress)
	assert.Equal(t, 100, frames[2].Progress)
	assert.Equal(t, constant.SessionStatusCompleted, frames[2].Status)
}

func TestStreamSuppressesUnchangedFrames(t *testing.T) {
	store := memory.NewSessionStore()
	session := seedSession(t, store)
	_ = store.UpdateOutput(context.Background(), session.Id, &entity.ProcessedOutput{
		Progress: 20, Stage: constant.StageAnalyzingIntent, Timestamp: time.Now(),
	})

	// Session never advances; the stream must give up quietly after the
	// attempt budget with a single frame pushed.
	p := NewPublisher(store, nil, nopLogger{}, Config{PollInterval: time.Millisecond, MaxAttempts: 10})
	frames, err := collect(t, p, session.Id)

	assert.NoError(t, err)
	assert.Len(t, frames, 1)
	assert.Equal(t, 20, frames[0].Progress)
}

// erroringStore simulates a session store whose reads fail outright.
type erroringStore struct{}

func (erroringStore) Create(ctx context.Context, s *entity.ProcessingSession) error { return nil }
func (erroringStore) Get(ctx context.Context, id uuid.UUID) (*entity.ProcessingSession, error) {
	return nil, errors.New("connection reset by peer")
}
func (erroringStore) SetStatus(ctx context.Context, id uuid.UUID, status string) error { return nil }
func (erroringStore) UpdateOutput(ctx context.Context, id uuid.UUID, o *entity.ProcessedOutput) error {
	return nil
}
func (erroringStore) Finalize(ctx context.Context, s *entity.ProcessingSession) error { return nil }

func TestStreamReadErrorEmitsSyntheticFailure(t *testing.T) {
	p := NewPublisher(erroringStore{}, nil, nopLogger{}, Config{PollInterval: time.Millisecond, MaxAttempts: 10})

	var frames []dto.ProgressUpdate
	err := p.Stream(context.Background(), uuid.New(), func(u dto.ProgressUpdate) error {
		frames = append(frames, u)
		return nil
	})

	// A broken store ends the stream with a single synthetic failure frame;
	// the client sees a clean close, not a transport error.
	assert.NoError(t, err)
	assert.Len(t, frames, 1)
	assert.Equal(t, 0, frames[0].Progress)
	assert.Equal(t, constant.StageMonitorError, frames[0].Stage)
	assert.Equal(t, constant.SessionStatusFailed, frames[0].Status)
}

func TestStreamSessionNotFound(t *testing.T) {
	store := memory.NewSessionStore()

	p := NewPublisher(store, nil, nopLogger{}, Config{PollInterval: time.Millisecond, MaxAttempts: 10})
	frames, err := collect(t, p, uuid.New())

	assert.NoError(t, err)
	assert.Len(t, frames, 1)
	assert.Equal(t, constant.StageSessionNotFound, frames[0].Stage)
	assert.Equal(t, constant.SessionStatusFailed, frames[0].Status)
	assert.Equal(t, 0, frames[0].Progress)
}

func TestStreamStopsOnContextCancel(t *testing.T) {
	store := memory.NewSessionStore()
	session := seedSession(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	p := NewPublisher(store, nil, nopLogger{}, Config{PollInterval: time.Second, MaxAttempts: 10})

	done := make(chan error, 1)
	go func() {
		done <- p.Stream(ctx, session.Id, func(dto.ProgressUpdate) error {
			t.Error("no frame expected after cancel")
			return nil
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not stop on context cancel")
	}
}

func TestStreamStopsOnEmitError(t *testing.T) {
	store := memory.NewSessionStore()
	session := seedSession(t, store)
	_ = store.UpdateOutput(context.Background(), session.Id, &entity.ProcessedOutput{
		Progress: 20, Stage: constant.StageAnalyzingIntent, Timestamp: time.Now(),
	})

	clientGone := errors.New("client gone")
	p := NewPublisher(store, nil, nopLogger{}, Config{PollInterval: time.Millisecond, MaxAttempts: 100})

	calls := 0
	err := p.Stream(context.Background(), session.Id, func(dto.ProgressUpdate) error {
		calls++
		return clientGone
	})

	assert.ErrorIs(t, err, clientGone)
	assert.Equal(t, 1, calls)
}

func TestStreamWakesUpEarlyOnProgressMessage(t *testing.T) {
	store := memory.NewSessionStore()
	session := seedSession(t, store)

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	p := NewPublisher(store, bus, nopLogger{}, Config{PollInterval: 2 * time.Second, MaxAttempts: 10})

	start := time.Now()
	frames := make(chan dto.ProgressUpdate, 1)
	go func() {
		_ = p.Stream(context.Background(), session.Id, func(u dto.ProgressUpdate) error {
			frames <- u
			return errors.New("stop after first frame")
		})
	}()

	// Give the subscription a moment, then write progress and nudge the bus.
	time.Sleep(50 * time.Millisecond)
	_ = store.UpdateOutput(context.Background(), session.Id, &entity.ProcessedOutput{
		Progress: 30, Stage: constant.StageTimeContext, Timestamp: time.Now(),
	})
	payload, _ := json.Marshal(progress.WakeupPayload{SessionID: session.Id})
	assert.NoError(t, bus.Publish(constant.TopicPlannerProgress, message.NewMessage(watermill.NewUUID(), payload)))

	select {
	case u := <-frames:
		assert.Equal(t, 30, u.Progress)
		// Well under the 2s poll interval proves the wakeup worked.
		assert.Less(t, time.Since(start), time.Second)
	case <-time.After(time.Second):
		t.Fatal("wakeup did not trigger an early poll")
	}
}
