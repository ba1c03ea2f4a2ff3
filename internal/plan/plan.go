// Package plan holds the reconciliation engine: it decides, per stack, what
// single action makes the remote match the local declaration, and executes
// the resulting plan with dry-run gating and per-stack failure isolation.
package plan

import (
	"fmt"
	"strings"

	"github.com/example/stacksync/internal/stack"
)

// Kind enumerates the actions the engine can decide on.
type Kind string

const (
	Create      Kind = "create"
	Update      Kind = "update"
	SetEnabled  Kind = "set-enabled"
	SetDisabled Kind = "set-disabled"
	Redeploy    Kind = "redeploy"
	NoOp        Kind = "no-op"
)

// Action is the engine's decision for one stack: pure data, never executed
// as a side effect of being computed.
type Action struct {
	Stack   string
	Kind    Kind
	Summary string
	// Diff carries a unified diff for Update actions, rendered for
	// verbose/preview output.
	Diff string
}

// StackPlan bundles an action with the resolved stack and the local file
// bodies read at planning time, so execution needs no further local I/O.
type StackPlan struct {
	Stack   stack.Resolved
	Action  Action
	Compose []byte
	Env     []byte
}

// Plan is the ordered sequence of per-stack plans for one invocation.
type Plan struct {
	Stacks []StackPlan
}

// Mutates reports whether executing the action would issue a mutating
// backend call.
func (a Action) Mutates() bool {
	return a.Kind != NoOp
}

// PartialFailureError aggregates per-stack execution failures; sibling
// stacks continue when one fails, and the invocation as a whole fails if
// any did.
type PartialFailureError struct {
	Failed []string
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d stack(s) failed: %s", len(e.Failed), strings.Join(e.Failed, ", "))
}
