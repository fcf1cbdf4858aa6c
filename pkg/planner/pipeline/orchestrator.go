// Package pipeline drives the fixed sequence of AI-assisted steps that turns
// free-form user input into structured calendar events.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/pkg/logger"
	"ai-eventplanner-be/pkg/events"
	"ai-eventplanner-be/pkg/planner"
	"ai-eventplanner-be/pkg/planner/progress"
	"ai-eventplanner-be/pkg/planner/toolcall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher fans terminal outcomes out to interested consumers.
// Satisfied by the NATS publisher; nil disables fan-out.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Config struct {
	// StepRetries is the number of extra attempts a step gets after a
	// transient failure. Validation failures are never retried.
	StepRetries int

	// RetryBackoff is the pause between attempts of the same step.
	RetryBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		StepRetries:  2,
		RetryBackoff: 2 * time.Second,
	}
}

// Orchestrator executes the planner pipeline for one session at a time.
// It writes exactly one terminal outcome per run; everything in between is
// observable only through the progress ticks in the session store.
type Orchestrator struct {
	store    planner.SessionStore
	invoker  toolcall.Invoker
	reporter progress.Reporter
	events   EventPublisher    // optional
	bus      message.Publisher // optional, feeds the persistence consumer
	logger   logger.ILogger
	cfg      Config
}

func NewOrchestrator(
	store planner.SessionStore,
	invoker toolcall.Invoker,
	reporter progress.Reporter,
	eventPub EventPublisher,
	bus message.Publisher,
	log logger.ILogger,
	cfg Config,
) *Orchestrator {
	if cfg.StepRetries < 0 {
		cfg.StepRetries = 0
	}
	return &Orchestrator{
		store:    store,
		invoker:  invoker,
		reporter: reporter,
		events:   eventPub,
		bus:      bus,
		logger:   log,
		cfg:      cfg,
	}
}

// Run executes the pipeline to its terminal state. The returned error mirrors
// what was already persisted as the session's failure; callers launch Run in
// a background goroutine and only log it.
func (o *Orchestrator) Run(ctx context.Context, session *entity.ProcessingSession) error {
	start := time.Now()
	ec := newExecutionContext(session.UserInput, session.CalendarContext)

	if err := o.store.SetStatus(ctx, session.Id, constant.SessionStatusProcessing); err != nil {
		// A lost status write is recoverable: the first progress tick will
		// still land. Terminal writes are the ones that must not be lost.
		o.logger.Warn("Orchestrator", "Failed to mark session PROCESSING", map[string]interface{}{
			"session_id": session.Id, "error": err.Error(),
		})
	}

	runSteps := func() (string, error) {
		if err := o.stepAnalyzeIntent(ctx, session, ec); err != nil {
			return constant.FailureIntentAnalysis, err
		}
		if err := o.stepTimeContext(ctx, session, ec); err != nil {
			return constant.FailureTimeContext, err
		}
		if err := o.stepPlanStructure(ctx, session, ec); err != nil {
			return constant.FailureStructurePlan, err
		}
		if err := o.stepGenerateDetails(ctx, session, ec); err != nil {
			return constant.FailureDetailGeneration, err
		}
		if err := o.stepFinalizeSchedule(ctx, session, ec); err != nil {
			return constant.FailureScheduleValidation, err
		}
		return "", nil
	}

	if reason, err := runSteps(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			reason = constant.FailureDeadlineExceeded
		}
		return o.fail(session, reason, err)
	}

	return o.complete(session, ec, time.Since(start))
}

// Step 1: analyze intent (20%).
func (o *Orchestrator) stepAnalyzeIntent(ctx context.Context, session *entity.ProcessingSession, ec *ExecutionContext) error {
	var intent dto.AIIntent
	err := o.invokeStep(ctx, session, ec, constant.ToolAnalyzeIntent,
		[]string{ec.UserInput, ec.CalendarContext}, &intent)
	if err != nil {
		return err
	}
	ec.Intent = &intent
	o.reporter.Report(ctx, session.Id, constant.ProgressIntent, constant.StageAnalyzingIntent)
	return nil
}

// Step 2: acquire current time/scheduling context (30%).
func (o *Orchestrator) stepTimeContext(ctx context.Context, session *entity.ProcessingSession, ec *ExecutionContext) error {
	now := time.Now()
	var tc dto.AITimeContext
	err := o.invokeStep(ctx, session, ec, constant.ToolGetTimeContext,
		[]string{now.Format(time.RFC3339), now.Location().String(), ec.Intent.Summary, ec.UserInput}, &tc)
	if err != nil {
		return err
	}
	if tc.Timezone == "" {
		tc.Timezone = now.Location().String()
	}
	ec.TimeContext = &tc
	o.reporter.Report(ctx, session.Id, constant.ProgressTimeContext, constant.StageTimeContext)
	return nil
}

// Step 3: plan event structure (40%).
func (o *Orchestrator) stepPlanStructure(ctx context.Context, session *entity.ProcessingSession, ec *ExecutionContext) error {
	var plan dto.AIEventPlan
	err := o.invokeStep(ctx, session, ec, constant.ToolPlanStructure,
		[]string{marshal(ec.Intent), marshal(ec.TimeContext), ec.UserInput}, &plan)
	if err != nil {
		return err
	}
	normalizePlan(&plan)
	ec.Plan = &plan
	o.reporter.Report(ctx, session.Id, constant.ProgressStructure, constant.StagePlanningStructure)
	return nil
}

// Step 4: per-event detail via exactly one strategy tool (50-70%).
func (o *Orchestrator) stepGenerateDetails(ctx context.Context, session *entity.ProcessingSession, ec *ExecutionContext) error {
	tool, prog, stage := detailStep(ec.Plan.DetailStrategy)

	var details dto.AIDetailResult
	err := o.invokeStep(ctx, session, ec, tool,
		[]string{ec.Plan.DetailStrategy, marshal(ec.Plan), marshal(ec.TimeContext)}, &details)
	if err != nil {
		return err
	}
	ec.Details = &details
	o.reporter.Report(ctx, session.Id, prog, stage)
	return nil
}

// Step 5: finalize into an ordered, validated event sequence (80%).
func (o *Orchestrator) stepFinalizeSchedule(ctx context.Context, session *entity.ProcessingSession, ec *ExecutionContext) error {
	var schedule dto.AIFinalSchedule
	err := o.invokeStep(ctx, session, ec, constant.ToolFinalizeSchedule,
		[]string{marshal(ec.Intent), marshal(ec.TimeContext), marshal(ec.Plan), marshal(ec.Details)}, &schedule)
	if err != nil {
		return err
	}

	o.reporter.Report(ctx, session.Id, constant.ProgressFinalizing, constant.StageFinalizing)

	// Schema validation of the terminal output is always fatal on failure;
	// no partial event list is ever persisted.
	normalizeSchedule(&schedule, ec.TimeContext.Timezone)
	if err := validateSchedule(&schedule); err != nil {
		return err
	}
	ec.Schedule = &schedule
	return nil
}

// invokeStep runs one tool with the bounded transient-retry policy and
// decodes its structured response into out.
func (o *Orchestrator) invokeStep(ctx context.Context, session *entity.ProcessingSession, ec *ExecutionContext, tool string, args []string, out interface{}) error {
	if !ec.MarkInvoked(tool) {
		// Redundant request for an already-executed step: protocol says no-op.
		// The decoded result is already on the execution context.
		o.logger.Warn("Orchestrator", "Suppressed duplicate tool invocation", map[string]interface{}{
			"session_id": session.Id, "tool": tool,
		})
		return nil
	}

	attempts := 1 + o.cfg.StepRetries
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			// Surface the retry in the store, then wait out the backoff.
			_ = o.store.SetStatus(ctx, session.Id, constant.SessionStatusRetry)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.cfg.RetryBackoff):
			}
			_ = o.store.SetStatus(ctx, session.Id, constant.SessionStatusProcessing)
		}

		res, err := o.invoker.Invoke(ctx, tool, args)
		if err == nil {
			if decodeErr := json.Unmarshal(res.Data, out); decodeErr != nil {
				derr := fmt.Errorf("tool %s: undecodable response: %w", tool, decodeErr)
				if tool == constant.ToolFinalizeSchedule {
					// The terminal schedule failed its shape contract; that is
					// a validation failure, never a retry.
					err = planner.Invalid(constant.FailureScheduleValidation, derr)
				} else {
					err = planner.Transient(derr)
				}
			} else {
				ec.TokensUsed += res.TokensUsed
				return nil
			}
		}

		lastErr = err
		if !planner.IsTransient(err) {
			break
		}
		o.logger.Warn("Orchestrator", "Transient step failure", map[string]interface{}{
			"session_id": session.Id, "tool": tool, "attempt": attempt, "error": err.Error(),
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return lastErr
}

// complete writes the single terminal success outcome and fans it out.
func (o *Orchestrator) complete(session *entity.ProcessingSession, ec *ExecutionContext, elapsed time.Duration) error {
	results := make([]entity.EventDraft, len(ec.Schedule.Events))
	for i, e := range ec.Schedule.Events {
		results[i] = entity.EventDraft{
			Emoji:       e.Emoji,
			Title:       e.Title,
			Description: e.Description,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			Timezone:    e.Timezone,
			IsAllDay:    e.IsAllDay,
			Location:    e.Location,
			Confidence:  e.Confidence,
		}
	}

	elapsedMs := elapsed.Milliseconds()
	tokens := ec.TokensUsed
	confidence := ec.Schedule.OverallConfidence

	session.Status = constant.SessionStatusCompleted
	session.Output = &entity.ProcessedOutput{
		Progress:  constant.ProgressDone,
		Stage:     constant.StageDone,
		Timestamp: time.Now(),
		Results:   results,
	}
	session.ProcessingTimeMs = &elapsedMs
	session.TokensUsed = &tokens
	session.Confidence = &confidence
	session.ErrorMessage = nil

	// Terminal writes use a fresh context: the run context may already be
	// past its deadline, and losing the terminal state strands the session.
	finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.store.Finalize(finalCtx, session); err != nil {
		o.logger.Error("Orchestrator", "Failed to persist terminal success", map[string]interface{}{
			"session_id": session.Id, "error": err.Error(),
		})
		return err
	}

	o.logger.Info("Orchestrator", "Session completed", map[string]interface{}{
		"session_id": session.Id, "events": len(results), "elapsed_ms": elapsedMs, "tokens": tokens,
	})

	o.publishCompleted(finalCtx, session, len(results))
	return nil
}

// fail writes the single terminal failure outcome. No event drafts survive.
func (o *Orchestrator) fail(session *entity.ProcessingSession, reason string, cause error) error {
	errMsg := reason

	session.Status = constant.SessionStatusFailed
	session.Output = &entity.ProcessedOutput{
		Progress:  0,
		Stage:     constant.StageFailed,
		Timestamp: time.Now(),
	}
	session.ErrorMessage = &errMsg
	session.ProcessingTimeMs = nil
	session.TokensUsed = nil
	session.Confidence = nil

	finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.store.Finalize(finalCtx, session); err != nil {
		o.logger.Error("Orchestrator", "Failed to persist terminal failure", map[string]interface{}{
			"session_id": session.Id, "reason": reason, "error": err.Error(),
		})
	}

	o.logger.Error("Orchestrator", "Session failed", map[string]interface{}{
		"session_id": session.Id, "reason": reason, "cause": fmt.Sprint(cause),
	})

	if o.events != nil {
		evt := events.NewPlanFailed(session.Id, session.UserId, reason)
		if err := o.events.Publish(finalCtx, evt); err != nil {
			o.logger.Warn("Orchestrator", "Failed to publish PLAN_FAILED", map[string]interface{}{
				"session_id": session.Id, "error": err.Error(),
			})
		}
	}

	return cause
}

func (o *Orchestrator) publishCompleted(ctx context.Context, session *entity.ProcessingSession, eventCount int) {
	// In-process bus first: the persistence consumer turns results into
	// planned_events rows.
	if o.bus != nil {
		payload, err := json.Marshal(progress.WakeupPayload{SessionID: session.Id})
		if err == nil {
			msg := message.NewMessage(watermill.NewUUID(), payload)
			if err := o.bus.Publish(constant.TopicPlannerCompleted, msg); err != nil {
				o.logger.Warn("Orchestrator", "Failed to publish completion message", map[string]interface{}{
					"session_id": session.Id, "error": err.Error(),
				})
			}
		}
	}

	if o.events != nil {
		evt := events.NewPlanCompleted(session.Id, session.UserId, eventCount)
		if err := o.events.Publish(ctx, evt); err != nil {
			o.logger.Warn("Orchestrator", "Failed to publish PLAN_COMPLETED", map[string]interface{}{
				"session_id": session.Id, "error": err.Error(),
			})
		}
	}
}

// detailStep maps the plan's detail strategy to its tool, progress target and
// stage label. Unknown strategies already got normalized away.
func detailStep(strategy string) (tool string, prog int, stage string) {
	switch strategy {
	case constant.DetailStrategyTiming:
		return constant.ToolCalculateTiming, constant.ProgressTiming, constant.StageCalculatingTiming
	case constant.DetailStrategyTravel:
		return constant.ToolPlanTravelLegs, constant.ProgressTravel, constant.StagePlanningTravel
	case constant.DetailStrategyDescription:
		return constant.ToolWriteDescriptions, constant.ProgressDescription, constant.StageWritingDetails
	default:
		return constant.ToolSelectEmoji, constant.ProgressEmoji, constant.StageSelectingEmoji
	}
}

func marshal(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
