package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/repository/memory"
	"ai-eventplanner-be/pkg/planner"
	"ai-eventplanner-be/pkg/planner/progress"
	"ai-eventplanner-be/pkg/planner/toolcall"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// fakeInvoker serves canned JSON per tool, optionally failing transiently a
// set number of times first.
type fakeInvoker struct {
	mu        sync.Mutex
	responses map[string]string
	transient map[string]int
	calls     map[string]int
}

func newFakeInvoker(responses map[string]string) *fakeInvoker {
	return &fakeInvoker{
		responses: responses,
		transient: make(map[string]int),
		calls:     make(map[string]int),
	}
}

func (f *fakeInvoker) Invoke(ctx context.Context, tool string, args []string) (*toolcall.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[tool]++
	if f.transient[tool] > 0 {
		f.transient[tool]--
		return nil, planner.Transient(errors.New("capability unavailable"))
	}
	res, ok := f.responses[tool]
	if !ok {
		return nil, fmt.Errorf("no script for tool %s", tool)
	}
	return &toolcall.Result{Data: json.RawMessage(res), TokensUsed: 10}, nil
}

// recordingReporter captures the tick sequence while still writing through.
type recordingReporter struct {
	inner    progress.Reporter
	mu       sync.Mutex
	progress []int
}

func (r *recordingReporter) Report(ctx context.Context, sessionID uuid.UUID, p int, stage string) {
	r.mu.Lock()
	r.progress = append(r.progress, p)
	r.mu.Unlock()
	r.inner.Report(ctx, sessionID, p, stage)
}

func happyResponses() map[string]string {
	return map[string]string{
		constant.ToolAnalyzeIntent:  `{"summary":"dinner friday","event_hint":"meal","participants":["sam"],"locations":[],"has_explicit_date":true,"has_explicit_time":false,"language":"en"}`,
		constant.ToolGetTimeContext: `{"reference_time":"2026-09-01T10:00:00Z","timezone":"UTC","resolved_dates":[{"expression":"friday","date":"2026-09-04"}],"working_hours":{"start":"09:00","end":"17:00"},"notes":""}`,
		constant.ToolPlanStructure:  `{"count":2,"type":"simple","detail_strategy":"emoji","events":[{"working_title":"Dinner","location":""},{"working_title":"Drinks","location":""}],"reasoning":""}`,
		constant.ToolSelectEmoji:    `{"details":[{"working_title":"Dinner","emoji":"🍝"},{"working_title":"Drinks","emoji":"🍸"}]}`,
		constant.ToolFinalizeSchedule: `{"events":[
			{"emoji":"🍸","title":"Drinks","description":"","startTime":"2026-09-04T21:00:00Z","endTime":"2026-09-04T22:00:00Z","timezone":"UTC","isAllDay":false,"confidence":0.8},
			{"emoji":"🍝","title":"Dinner","description":"","startTime":"2026-09-04T19:00:00Z","endTime":"2026-09-04T20:30:00Z","timezone":"UTC","isAllDay":false,"confidence":0.9}
		],"overall_confidence":0.85}`,
	}
}

func newRunFixture(invoker toolcall.Invoker) (*Orchestrator, *memory.SessionStore, *recordingReporter, *entity.ProcessingSession) {
	store := memory.NewSessionStore()
	reporter := &recordingReporter{inner: progress.NewStoreReporter(store, nil, nopLogger{})}
	orch := NewOrchestrator(store, invoker, reporter, nil, nil, nopLogger{}, Config{
		StepRetries:  2,
		RetryBackoff: time.Millisecond,
	})
	session := &entity.ProcessingSession{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		UserInput: "dinner with sam friday, drinks after",
		Status:    constant.SessionStatusPending,
	}
	_ = store.Create(context.Background(), session)
	return orch, store, reporter, session
}

func TestRunCompletesAndOrdersEvents(t *testing.T) {
	invoker := newFakeInvoker(happyResponses())
	orch, store, reporter, session := newRunFixture(invoker)

	assert.NoError(t, orch.Run(context.Background(), session))

	got, _ := store.Get(context.Background(), session.Id)
	assert.Equal(t, constant.SessionStatusCompleted, got.Status)
	assert.Equal(t, constant.ProgressDone, got.Output.Progress)
	assert.Equal(t, constant.StageDone, got.Output.Stage)
	assert.Nil(t, got.ErrorMessage)
	assert.NotNil(t, got.ProcessingTimeMs)
	assert.NotNil(t, got.TokensUsed)
	assert.InDelta(t, 0.85, *got.Confidence, 0.001)

	// Events come back start-ordered regardless of model ordering.
	assert.Len(t, got.Output.Results, 2)
	assert.Equal(t, "Dinner", got.Output.Results[0].Title)
	assert.Equal(t, "Drinks", got.Output.Results[1].Title)

	// Ticks climb monotonically through the fixed pipeline.
	assert.Equal(t, []int{
		constant.ProgressIntent,
		constant.ProgressTimeContext,
		constant.ProgressStructure,
		constant.ProgressEmoji,
		constant.ProgressFinalizing,
	}, reporter.progress)

	// Every tool ran exactly once.
	for tool, n := range invoker.calls {
		assert.Equalf(t, 1, n, "tool %s", tool)
	}
}

func TestRunRetriesTransientFailureThenSucceeds(t *testing.T) {
	invoker := newFakeInvoker(happyResponses())
	invoker.transient[constant.ToolGetTimeContext] = 1
	orch, store, _, session := newRunFixture(invoker)

	assert.NoError(t, orch.Run(context.Background(), session))

	got, _ := store.Get(context.Background(), session.Id)
	assert.Equal(t, constant.SessionStatusCompleted, got.Status)
	assert.Equal(t, 2, invoker.calls[constant.ToolGetTimeContext])
}

func TestRunFailsAfterRetryBudgetExhausted(t *testing.T) {
	invoker := newFakeInvoker(happyResponses())
	invoker.transient[constant.ToolAnalyzeIntent] = 10
	orch, store, _, session := newRunFixture(invoker)

	assert.Error(t, orch.Run(context.Background(), session))

	got, _ := store.Get(context.Background(), session.Id)
	assert.Equal(t, constant.SessionStatusFailed, got.Status)
	assert.Equal(t, constant.FailureIntentAnalysis, *got.ErrorMessage)
	assert.Equal(t, 0, got.Output.Progress)
	assert.Empty(t, got.Output.Results)
	// Initial attempt plus two retries.
	assert.Equal(t, 3, invoker.calls[constant.ToolAnalyzeIntent])
}

func TestRunValidationFailureIsFatal(t *testing.T) {
	responses := happyResponses()
	// End before start: schema validation must reject the whole run.
	responses[constant.ToolFinalizeSchedule] = `{"events":[{"emoji":"🍝","title":"Dinner","description":"","startTime":"2026-09-04T20:00:00Z","endTime":"2026-09-04T19:00:00Z","timezone":"UTC","isAllDay":false,"confidence":0.9}],"overall_confidence":0.9}`
	invoker := newFakeInvoker(responses)
	orch, store, _, session := newRunFixture(invoker)

	assert.Error(t, orch.Run(context.Background(), session))

	got, _ := store.Get(context.Background(), session.Id)
	assert.Equal(t, constant.SessionStatusFailed, got.Status)
	assert.Equal(t, constant.FailureScheduleValidation, *got.ErrorMessage)
	assert.Empty(t, got.Output.Results)
	// Fatal errors never retry.
	assert.Equal(t, 1, invoker.calls[constant.ToolFinalizeSchedule])
}

func TestRunUndecodableResponseRetries(t *testing.T) {
	responses := happyResponses()
	// Valid JSON, wrong shape for the typed decode: events as a string.
	responses[constant.ToolPlanStructure] = `{"count":"two","events":"none"}`
	invoker := newFakeInvoker(responses)
	orch, store, _, session := newRunFixture(invoker)

	assert.Error(t, orch.Run(context.Background(), session))

	got, _ := store.Get(context.Background(), session.Id)
	assert.Equal(t, constant.SessionStatusFailed, got.Status)
	assert.Equal(t, constant.FailureStructurePlan, *got.ErrorMessage)
	assert.Equal(t, 3, invoker.calls[constant.ToolPlanStructure])
}

func TestRunFinalizeShapeFailureIsFatal(t *testing.T) {
	responses := happyResponses()
	// Terminal output whose events field is not an array: the shape contract
	// is part of schedule validation, so this must fail without a retry.
	responses[constant.ToolFinalizeSchedule] = `{"events":"not-an-array","overall_confidence":0.9}`
	invoker := newFakeInvoker(responses)
	orch, store, _, session := newRunFixture(invoker)

	assert.Error(t, orch.Run(context.Background(), session))

	got, _ := store.Get(context.Background(), session.Id)
	assert.Equal(t, constant.SessionStatusFailed, got.Status)
	assert.Equal(t, constant.FailureScheduleValidation, *got.ErrorMessage)
	assert.Empty(t, got.Output.Results)
	assert.Equal(t, 1, invoker.calls[constant.ToolFinalizeSchedule])
}

type blockingInvoker struct{}

func (blockingInvoker) Invoke(ctx context.Context, tool string, args []string) (*toolcall.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunDeadlineProducesTimedOutFailure(t *testing.T) {
	orch, store, _, session := newRunFixture(blockingInvoker{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, orch.Run(ctx, session))

	got, _ := store.Get(context.Background(), session.Id)
	assert.Equal(t, constant.SessionStatusFailed, got.Status)
	assert.Equal(t, constant.FailureDeadlineExceeded, *got.ErrorMessage)
}

func TestExecutionContextSuppressesDuplicateInvocation(t *testing.T) {
	ec := newExecutionContext("input", "")

	assert.True(t, ec.MarkInvoked(constant.ToolAnalyzeIntent))
	assert.False(t, ec.MarkInvoked(constant.ToolAnalyzeIntent))
	assert.True(t, ec.Invoked(constant.ToolAnalyzeIntent))
	assert.False(t, ec.Invoked(constant.ToolFinalizeSchedule))
}
