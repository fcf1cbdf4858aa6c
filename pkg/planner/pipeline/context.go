package pipeline

import (
	"ai-eventplanner-be/internal/dto"
)

// ExecutionContext accumulates structured step output across one orchestrator
// run. Later steps consume earlier steps' fields, so the pipeline cannot
// fan out.
//
// The invoked set carries the at-most-once protocol: the underlying AI
// capability may request a step redundantly, and a repeated request is
// no-op'd against this set instead of re-running the tool.
type ExecutionContext struct {
	UserInput       string
	CalendarContext string

	Intent      *dto.AIIntent
	TimeContext *dto.AITimeContext
	Plan        *dto.AIEventPlan
	Details     *dto.AIDetailResult
	Schedule    *dto.AIFinalSchedule

	TokensUsed int

	invoked map[string]bool
}

func newExecutionContext(userInput, calendarContext string) *ExecutionContext {
	return &ExecutionContext{
		UserInput:       userInput,
		CalendarContext: calendarContext,
		invoked:         make(map[string]bool),
	}
}

// MarkInvoked records a completed tool call. Returns false when the tool
// already ran, in which case the caller must not run it again.
func (ec *ExecutionContext) MarkInvoked(tool string) bool {
	if ec.invoked[tool] {
		return false
	}
	ec.invoked[tool] = true
	return true
}

func (ec *ExecutionContext) Invoked(tool string) bool {
	return ec.invoked[tool]
}
