package plan

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/stacksync/internal/remote"
	"github.com/example/stacksync/internal/report"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one stack's action.
type Result struct {
	Stack  string
	Action Action
	Err    error
}

// Report aggregates per-stack results for one invocation.
type Report struct {
	Results []Result
}

// Add appends a result (used by callers to fold in planning-time failures).
func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// FailedStacks returns the names of stacks whose action failed, sorted.
func (r *Report) FailedStacks() []string {
	var failed []string
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res.Stack)
		}
	}
	sort.Strings(failed)
	return failed
}

// Err returns nil when every stack succeeded, otherwise a
// PartialFailureError naming the failed stacks.
func (r *Report) Err() error {
	failed := r.FailedStacks()
	if len(failed) == 0 {
		return nil
	}
	return &PartialFailureError{Failed: failed}
}

// Executor walks a Plan against a backend. With DryRun set it only renders
// the plan; no mutating backend call is made, for any action, ever.
type Executor struct {
	Backend  remote.Backend
	Reporter *report.Reporter
	Logger   *zap.Logger

	DryRun bool
	// Parallel > 1 executes stacks concurrently with that limit. Actions
	// for a single stack stay serialized (each stack carries exactly one
	// action per invocation), and per-stack output is kept to single
	// lines so reports never interleave mid-stack.
	Parallel int
}

// Execute runs the plan in order and returns the per-stack results. One
// stack's failure never aborts its siblings.
func (e *Executor) Execute(ctx context.Context, p Plan) Report {
	rep := Report{Results: make([]Result, len(p.Stacks))}

	if e.DryRun {
		for i, sp := range p.Stacks {
			e.preview(sp)
			rep.Results[i] = Result{Stack: sp.Stack.Name, Action: sp.Action}
		}
		return rep
	}

	if e.Parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.Parallel)
		for i, sp := range p.Stacks {
			g.Go(func() error {
				rep.Results[i] = e.apply(gctx, sp, true)
				return nil
			})
		}
		// Worker errors are captured per stack; the group never fails.
		_ = g.Wait()
		return rep
	}

	for i, sp := range p.Stacks {
		rep.Results[i] = e.apply(ctx, sp, false)
	}
	return rep
}

func (e *Executor) preview(sp StackPlan) {
	name := sp.Stack.Name
	switch sp.Action.Kind {
	case Create:
		e.Reporter.Preview("Would Create", name, "")
	case Update:
		e.Reporter.Preview("Would Update", name, sp.Action.Summary)
		if sp.Action.Diff != "" {
			e.Reporter.Detail(sp.Action.Diff)
		}
	case SetEnabled:
		e.Reporter.Preview("Would Start", name, sp.Action.Summary)
	case SetDisabled:
		e.Reporter.Preview("Would Stop", name, sp.Action.Summary)
	case Redeploy:
		e.Reporter.Preview("Would Redeploy", name, "")
	case NoOp:
		e.Reporter.NoOp(name, sp.Action.Summary)
	}
}

func (e *Executor) apply(ctx context.Context, sp StackPlan, quiet bool) Result {
	name := sp.Stack.Name
	res := Result{Stack: name, Action: sp.Action}

	progress := func(label string) {
		if !quiet {
			e.Reporter.Progress(label, name)
		}
	}

	var err error
	var done string
	switch sp.Action.Kind {
	case Create:
		progress("Creating")
		err = e.Backend.Deploy(ctx, sp.Stack, sp.Compose, sp.Env)
		done = "Created"
	case Update:
		progress("Updating")
		err = e.Backend.Deploy(ctx, sp.Stack, sp.Compose, sp.Env)
		done = "Updated"
	case SetEnabled:
		progress("Starting")
		err = e.Backend.SetRunning(ctx, sp.Stack, true)
		done = "Started"
	case SetDisabled:
		progress("Stopping")
		err = e.Backend.SetRunning(ctx, sp.Stack, false)
		done = "Stopped"
	case Redeploy:
		progress("Redeploying")
		err = e.Backend.Redeploy(ctx, sp.Stack)
		done = "Redeployed"
	case NoOp:
		e.Reporter.NoOp(name, sp.Action.Summary)
		return res
	default:
		err = fmt.Errorf("unknown action kind %q", sp.Action.Kind)
	}

	if err != nil {
		res.Err = err
		e.Logger.Error("stack action failed",
			zap.String("stack", name),
			zap.String("action", string(sp.Action.Kind)),
			zap.Error(err))
		e.Reporter.Failed(name, err)
		return res
	}
	e.Reporter.Done(done, name, e.Backend.Target())
	return res
}
