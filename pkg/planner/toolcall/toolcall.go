// Package toolcall exposes the planner's AI capability as discrete tool
// invocations. The collaborator contract is "one structured JSON response per
// invocation, or an error". Single-use enforcement lives in the pipeline's
// execution context, not here: a failed invocation must stay repeatable.
package toolcall

import (
	"context"
	"encoding/json"
)

// Result is one structured tool response.
type Result struct {
	Data       json.RawMessage
	TokensUsed int
}

type Invoker interface {
	Invoke(ctx context.Context, tool string, args []string) (*Result, error)
}
