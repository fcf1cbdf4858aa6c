// Package stream exposes a one-directional, server-to-client progress feed
// for a session, sourced entirely by polling the session store. Publishers
// and the orchestrator share no memory; the store is the only rendezvous.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/pkg/logger"
	"ai-eventplanner-be/pkg/planner"
	"ai-eventplanner-be/pkg/planner/progress"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type Config struct {
	// PollInterval is the fixed wait before each store read.
	PollInterval time.Duration

	// MaxAttempts bounds the poll count; together with PollInterval it puts
	// a hard wall-clock ceiling on stream lifetime.
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 1500 * time.Millisecond,
		MaxAttempts:  200,
	}
}

// EmitFunc delivers one frame to the client. A non-nil error means the client
// is gone and the stream must wind down.
type EmitFunc func(update dto.ProgressUpdate) error

// Publisher runs the per-stream state machine. Instances are stateless across
// calls; any number of streams may watch the same session concurrently.
type Publisher struct {
	store  planner.SessionStore
	bus    message.Subscriber // optional wake-up source, may be nil
	logger logger.ILogger
	cfg    Config
}

func NewPublisher(store planner.SessionStore, bus message.Subscriber, log logger.ILogger, cfg Config) *Publisher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Publisher{
		store:  store,
		bus:    bus,
		logger: log,
		cfg:    cfg,
	}
}

// Stream watches the session until a terminal status, a missing record, a
// read error, client disconnect, or attempt-budget exhaustion. It returns on
// every one of those paths; the caller's deferred close of the transport is
// what actually closes the channel, so returning IS the teardown guarantee.
//
// Delta suppression compares (progress, stage) only: a status flip without a
// progress/stage change does not produce a frame except through the terminal
// push itself.
func (p *Publisher) Stream(ctx context.Context, sessionID uuid.UUID, emit EmitFunc) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wake := p.subscribeWake(streamCtx, sessionID)

	lastProgress := -1
	lastStage := ""

	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		// Wait-then-poll: the orchestrator needs a moment before the first
		// observable write anyway.
		select {
		case <-streamCtx.Done():
			// Client disconnect or server shutdown: close without a synthetic
			// terminal frame, same contract as a timeout.
			return nil
		case <-time.After(p.cfg.PollInterval):
		case <-wake:
		}

		session, err := p.store.Get(streamCtx, sessionID)
		if err != nil {
			// A transient read error ends this stream; the client cannot tell
			// "still working" from "broken" except through stream liveness.
			p.logger.Error("StreamPublisher", "Store read failed, ending stream", map[string]interface{}{
				"session_id": sessionID, "error": err.Error(),
			})
			_ = emit(syntheticFailure(constant.StageMonitorError))
			return nil
		}
		if session == nil {
			_ = emit(syntheticFailure(constant.StageSessionNotFound))
			return nil
		}

		if out := session.Output; out != nil && (out.Progress != lastProgress || out.Stage != lastStage) {
			if err := emit(toUpdate(session)); err != nil {
				return err
			}
			lastProgress = out.Progress
			lastStage = out.Stage
		}

		if session.IsTerminal() {
			return nil
		}
	}

	// Attempt budget exhausted: close with no synthetic failure. The client
	// must treat closure without a terminal frame as inconclusive.
	p.logger.Warn("StreamPublisher", "Attempt budget exhausted", map[string]interface{}{
		"session_id": sessionID, "attempts": p.cfg.MaxAttempts,
	})
	return nil
}

// subscribeWake bridges the in-process progress topic into a per-session
// nudge channel. Returns nil (blocking forever in select) when no bus is
// wired, which degrades the loop to pure fixed-cadence polling.
func (p *Publisher) subscribeWake(ctx context.Context, sessionID uuid.UUID) <-chan struct{} {
	if p.bus == nil {
		return nil
	}

	messages, err := p.bus.Subscribe(ctx, constant.TopicPlannerProgress)
	if err != nil {
		p.logger.Warn("StreamPublisher", "Wakeup subscription failed, polling only", map[string]interface{}{
			"session_id": sessionID, "error": err.Error(),
		})
		return nil
	}

	wake := make(chan struct{}, 1)
	go func() {
		for msg := range messages {
			var payload progress.WakeupPayload
			if err := json.Unmarshal(msg.Payload, &payload); err == nil && payload.SessionID == sessionID {
				select {
				case wake <- struct{}{}:
				default:
				}
			}
			msg.Ack()
		}
	}()
	return wake
}

func toUpdate(session *entity.ProcessingSession) dto.ProgressUpdate {
	return dto.ProgressUpdate{
		Progress:  session.Output.Progress,
		Stage:     session.Output.Stage,
		Status:    session.Status,
		Timestamp: session.Output.Timestamp.Format(time.RFC3339),
	}
}

func syntheticFailure(stage string) dto.ProgressUpdate {
	return dto.ProgressUpdate{
		Progress:  0,
		Stage:     stage,
		Status:    constant.SessionStatusFailed,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
