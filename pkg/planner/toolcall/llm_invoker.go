package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/pkg/llm"
	"ai-eventplanner-be/pkg/planner"
)

// LLMInvoker backs every planner tool with a single LLM call built from the
// prompt templates in internal/constant. Temperature 0 for deterministic
// structured output.
type LLMInvoker struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewLLMInvoker(provider llm.LLMProvider, logger *log.Logger) *LLMInvoker {
	return &LLMInvoker{
		provider: provider,
		logger:   logger,
	}
}

func (i *LLMInvoker) Invoke(ctx context.Context, tool string, args []string) (*Result, error) {
	prompt, err := buildPrompt(tool, args)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := i.provider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		// Provider errors (unreachable, timed out) are retryable.
		return nil, planner.Transient(fmt.Errorf("tool %s: %w", tool, err))
	}

	cleaned := StripCodeFences(response)
	if cleaned == "" {
		return nil, malformedResponse(tool, fmt.Errorf("tool %s: empty response", tool))
	}
	if !json.Valid([]byte(cleaned)) {
		return nil, malformedResponse(tool, fmt.Errorf("tool %s: response is not valid JSON", tool))
	}

	if i.logger != nil {
		i.logger.Printf("[TOOL] %s ok in %s (%d chars)", tool, time.Since(start).Round(time.Millisecond), len(cleaned))
	}

	return &Result{
		Data:       json.RawMessage(cleaned),
		TokensUsed: estimateTokens(prompt) + estimateTokens(cleaned),
	}, nil
}

// malformedResponse classifies an unparseable model response. Intermediate
// steps may retry: the model often produces valid JSON on a second attempt.
// The finalize step's response is the terminal schedule itself, and terminal
// JSON that does not parse fails the run outright.
func malformedResponse(tool string, err error) error {
	if tool == constant.ToolFinalizeSchedule {
		return planner.Invalid(constant.FailureScheduleValidation, err)
	}
	return planner.Transient(err)
}

func buildPrompt(tool string, args []string) (string, error) {
	var template string
	var arity int

	switch tool {
	case constant.ToolAnalyzeIntent:
		template, arity = constant.AnalyzeIntentPromptV1, 2
	case constant.ToolGetTimeContext:
		template, arity = constant.TimeContextPromptV1, 4
	case constant.ToolPlanStructure:
		template, arity = constant.PlanStructurePromptV1, 3
	case constant.ToolSelectEmoji, constant.ToolCalculateTiming,
		constant.ToolPlanTravelLegs, constant.ToolWriteDescriptions:
		template, arity = constant.DetailPromptV1, 3
	case constant.ToolFinalizeSchedule:
		template, arity = constant.FinalizeSchedulePromptV1, 4
	default:
		return "", fmt.Errorf("unknown tool: %s", tool)
	}

	if len(args) != arity {
		return "", fmt.Errorf("tool %s expects %d args, got %d", tool, arity, len(args))
	}

	anyArgs := make([]interface{}, len(args))
	for idx, a := range args {
		anyArgs[idx] = a
	}
	return fmt.Sprintf(template, anyArgs...), nil
}

// StripCodeFences removes a surrounding markdown code fence if the model
// wrapped its JSON despite the prompt.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Rough chars-per-token heuristic; providers behind the generic interface do
// not report usage.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
