package toolcall

import (
	"context"
	"errors"
	"testing"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/pkg/llm"
	"ai-eventplanner-be/pkg/planner"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	response string
	err      error
	prompt   string
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	p.prompt = prompt
	return p.response, p.err
}

func (p *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.response, p.err
}

func TestInvokeReturnsStructuredResult(t *testing.T) {
	provider := &stubProvider{response: `{"summary":"meeting"}`}
	invoker := NewLLMInvoker(provider, nil)

	res, err := invoker.Invoke(context.Background(), constant.ToolAnalyzeIntent, []string{"meet bob", ""})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"summary":"meeting"}`, string(res.Data))
	assert.Greater(t, res.TokensUsed, 0)
	assert.Contains(t, provider.prompt, "meet bob")
}

func TestInvokeStripsCodeFences(t *testing.T) {
	provider := &stubProvider{response: "```json\n{\"summary\":\"x\"}\n```"}
	invoker := NewLLMInvoker(provider, nil)

	res, err := invoker.Invoke(context.Background(), constant.ToolAnalyzeIntent, []string{"a", "b"})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"summary":"x"}`, string(res.Data))
}

func TestInvokeProviderErrorIsTransient(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	invoker := NewLLMInvoker(provider, nil)

	_, err := invoker.Invoke(context.Background(), constant.ToolAnalyzeIntent, []string{"a", "b"})
	assert.Error(t, err)
	assert.True(t, planner.IsTransient(err))
}

func TestInvokeMalformedResponseIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"empty response", ""},
		{"prose instead of JSON", "Sure! Here is your schedule."},
		{"truncated JSON", `{"summary":"mee`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{response: tt.response}
			invoker := NewLLMInvoker(provider, nil)

			_, err := invoker.Invoke(context.Background(), constant.ToolAnalyzeIntent, []string{"a", "b"})
			assert.Error(t, err)
			assert.True(t, planner.IsTransient(err))
		})
	}
}

func TestInvokeFinalizeMalformedResponseIsFatal(t *testing.T) {
	// An unparseable response from the finalize step is the terminal schedule
	// failing validation, not a retriable hiccup.
	provider := &stubProvider{response: "Sure! Here is your schedule."}
	invoker := NewLLMInvoker(provider, nil)

	_, err := invoker.Invoke(context.Background(), constant.ToolFinalizeSchedule, []string{"a", "b", "c", "d"})
	assert.Error(t, err)
	assert.False(t, planner.IsTransient(err))

	var ve *planner.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, constant.FailureScheduleValidation, ve.Reason)
}

func TestInvokeRejectsUnknownToolAndBadArity(t *testing.T) {
	invoker := NewLLMInvoker(&stubProvider{response: "{}"}, nil)

	_, err := invoker.Invoke(context.Background(), "summon_demon", []string{"a"})
	assert.Error(t, err)
	assert.False(t, planner.IsTransient(err))

	_, err = invoker.Invoke(context.Background(), constant.ToolAnalyzeIntent, []string{"only one"})
	assert.Error(t, err)
	assert.False(t, planner.IsTransient(err))
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFences(tt.in))
	}
}
