// Simulation client: runs the full planning pipeline in-process against a
// scripted LLM and the in-memory session store, streaming progress frames to
// the terminal. No database, NATS or model server required.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/internal/entity"
	"ai-eventplanner-be/internal/pkg/logger"
	"ai-eventplanner-be/internal/repository/memory"
	"ai-eventplanner-be/pkg/llm"
	"ai-eventplanner-be/pkg/planner/pipeline"
	"ai-eventplanner-be/pkg/planner/progress"
	"ai-eventplanner-be/pkg/planner/stream"
	"ai-eventplanner-be/pkg/planner/toolcall"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// scriptedProvider replays canned responses in pipeline order.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.responses) == 0 {
		return "", fmt.Errorf("script exhausted")
	}
	res := p.responses[0]
	p.responses = p.responses[1:]
	time.Sleep(300 * time.Millisecond) // make the stream visibly tick
	return res, nil
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	last := ""
	if len(history) > 0 {
		last = history[len(history)-1].Content
	}
	return p.Generate(ctx, last, options...)
}

func script() []string {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	return []string{
		// analyze_intent
		`{"summary":"Dentist appointment tomorrow at 3pm, then groceries","event_hint":"appointment","participants":[],"locations":["dentist"],"has_explicit_date":true,"has_explicit_time":true,"language":"en"}`,
		// get_time_context
		`{"reference_time":"` + time.Now().Format(time.RFC3339) + `","timezone":"UTC","resolved_dates":[{"expression":"tomorrow","date":"` + tomorrow + `"}],"working_hours":{"start":"09:00","end":"17:00"},"notes":""}`,
		// plan_event_structure
		`{"count":2,"type":"simple","detail_strategy":"timing","events":[{"working_title":"Dentist appointment","location":"dentist"},{"working_title":"Grocery run","location":""}],"reasoning":"two distinct errands"}`,
		// calculate_timing
		`{"details":[{"working_title":"Dentist appointment","emoji":"🦷","start_hint":"15:00","end_hint":"16:00","travel_mode":"","description":"Checkup"},{"working_title":"Grocery run","emoji":"🛒","start_hint":"16:30","end_hint":"17:15","travel_mode":"","description":"Weekly groceries"}]}`,
		// finalize_schedule
		`{"events":[{"emoji":"🦷","title":"Dentist appointment","description":"Checkup","startTime":"` + tomorrow + `T15:00:00Z","endTime":"` + tomorrow + `T16:00:00Z","timezone":"UTC","isAllDay":false,"location":"dentist","confidence":0.93},{"emoji":"🛒","title":"Grocery run","description":"Weekly groceries","startTime":"` + tomorrow + `T16:30:00Z","endTime":"` + tomorrow + `T17:15:00Z","timezone":"UTC","isAllDay":false,"confidence":0.88}],"overall_confidence":0.9}`,
	}
}

func main() {
	color.Cyan("🚀 Planner Pipeline Simulation (in-process)\n")

	store := memory.NewSessionStore()
	simLogger := logger.NewIsolatedLogger("logs/simulate.log")
	provider := &scriptedProvider{responses: script()}
	invoker := toolcall.NewLLMInvoker(provider, log.New(os.Stdout, "[toolcall] ", log.LstdFlags))
	reporter := progress.NewStoreReporter(store, nil, simLogger)

	orchestrator := pipeline.NewOrchestrator(store, invoker, reporter, nil, nil, simLogger, pipeline.DefaultConfig())

	session := &entity.ProcessingSession{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		UserInput: "dentist tomorrow 3pm then groceries",
		Status:    constant.SessionStatusPending,
		Model:     "scripted",
		Provider:  "simulation",
	}
	if err := store.Create(context.Background(), session); err != nil {
		color.Red("Failed to create session: %v", err)
		os.Exit(1)
	}
	color.Yellow("Session: %s", session.Id)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := orchestrator.Run(ctx, session); err != nil {
			color.Red("Pipeline error: %v", err)
		}
	}()

	// Tight polling so the demo stays snappy.
	streamer := stream.NewPublisher(store, nil, simLogger, stream.Config{
		PollInterval: 100 * time.Millisecond,
		MaxAttempts:  200,
	})

	err := streamer.Stream(context.Background(), session.Id, func(update dto.ProgressUpdate) error {
		switch update.Status {
		case constant.SessionStatusCompleted:
			color.Green("[%3d%%] %s (%s)", update.Progress, update.Stage, update.Status)
		case constant.SessionStatusFailed:
			color.Red("[%3d%%] %s (%s)", update.Progress, update.Stage, update.Status)
		default:
			color.White("[%3d%%] %s (%s)", update.Progress, update.Stage, update.Status)
		}
		return nil
	})
	if err != nil {
		color.Red("Stream error: %v", err)
	}

	final, _ := store.Get(context.Background(), session.Id)
	if final == nil {
		color.Red("Session vanished")
		os.Exit(1)
	}

	if final.Status == constant.SessionStatusCompleted && final.Output != nil {
		color.Green("\n✅ %d event(s) planned:", len(final.Output.Results))
		for _, e := range final.Output.Results {
			fmt.Printf("  %s %s  %s → %s  (%.0f%%)\n", e.Emoji, e.Title, e.StartTime, e.EndTime, e.Confidence*100)
		}
	} else {
		msg := ""
		if final.ErrorMessage != nil {
			msg = *final.ErrorMessage
		}
		color.Red("\n❌ Session ended %s: %s", final.Status, msg)
		os.Exit(1)
	}
}
