package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/example/stacksync/internal/remote"
	"github.com/example/stacksync/internal/report"
	"github.com/example/stacksync/internal/stack"
	"go.uber.org/zap"
)

// fakeBackend records every mutating call and can fail selected stacks.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeBackend) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeBackend) errFor(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[name]
}

func (f *fakeBackend) Observe(ctx context.Context, st stack.Resolved) (remote.State, error) {
	return remote.State{}, nil
}

func (f *fakeBackend) Deploy(ctx context.Context, st stack.Resolved, compose, env []byte) error {
	f.record("deploy %s", st.Name)
	return f.errFor(st.Name)
}

func (f *fakeBackend) SetRunning(ctx context.Context, st stack.Resolved, running bool) error {
	f.record("set-running %s %v", st.Name, running)
	return f.errFor(st.Name)
}

func (f *fakeBackend) Redeploy(ctx context.Context, st stack.Resolved) error {
	f.record("redeploy %s", st.Name)
	return f.errFor(st.Name)
}

func (f *fakeBackend) Target() string { return "fake" }

func newExecutor(backend *fakeBackend, dryRun bool) (*Executor, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Executor{
		Backend:  backend,
		Reporter: report.New(&buf),
		Logger:   zap.NewNop(),
		DryRun:   dryRun,
	}, &buf
}

func testPlan() Plan {
	return Plan{Stacks: []StackPlan{
		{Stack: stack.Resolved{Name: "a", Enabled: true}, Action: Action{Stack: "a", Kind: Create}, Compose: []byte("x")},
		{Stack: stack.Resolved{Name: "b", Enabled: true}, Action: Action{Stack: "b", Kind: Update, Summary: "compose changed"}, Compose: []byte("y")},
		{Stack: stack.Resolved{Name: "c"}, Action: Action{Stack: "c", Kind: SetDisabled, Summary: "disabled locally, running remotely"}},
		{Stack: stack.Resolved{Name: "d", Enabled: true}, Action: Action{Stack: "d", Kind: NoOp, Summary: "up to date"}},
	}}
}

func TestDryRunMakesNoBackendCalls(t *testing.T) {
	backend := &fakeBackend{}
	exec, _ := newExecutor(backend, true)
	rep := exec.Execute(context.Background(), testPlan())
	if len(backend.calls) != 0 {
		t.Fatalf("dry run touched the backend: %v", backend.calls)
	}
	if err := rep.Err(); err != nil {
		t.Fatalf("dry run reported failures: %v", err)
	}
	if len(rep.Results) != 4 {
		t.Fatalf("expected a result per stack, got %d", len(rep.Results))
	}
}

func TestExecuteMapsActionsToBackendCalls(t *testing.T) {
	backend := &fakeBackend{}
	exec, _ := newExecutor(backend, false)
	rep := exec.Execute(context.Background(), testPlan())
	if err := rep.Err(); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	want := []string{"deploy a", "deploy b", "set-running c false"}
	if len(backend.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, backend.calls)
	}
	for i, call := range want {
		if backend.calls[i] != call {
			t.Fatalf("call %d: expected %q, got %q", i, call, backend.calls[i])
		}
	}
}

func TestExecuteContinuesPastFailures(t *testing.T) {
	backend := &fakeBackend{fail: map[string]error{"b": errors.New("boom")}}
	exec, _ := newExecutor(backend, false)
	rep := exec.Execute(context.Background(), testPlan())

	var partial *PartialFailureError
	if !errors.As(rep.Err(), &partial) {
		t.Fatalf("expected PartialFailureError, got %v", rep.Err())
	}
	if len(partial.Failed) != 1 || partial.Failed[0] != "b" {
		t.Fatalf("expected only b to fail, got %v", partial.Failed)
	}
	// Siblings after the failure still ran.
	found := false
	for _, call := range backend.calls {
		if call == "set-running c false" {
			found = true
		}
	}
	if !found {
		t.Fatalf("stack after the failure was skipped: %v", backend.calls)
	}
}

func TestExecuteParallelKeepsResultOrder(t *testing.T) {
	backend := &fakeBackend{}
	exec, _ := newExecutor(backend, false)
	exec.Parallel = 3
	rep := exec.Execute(context.Background(), testPlan())
	wantOrder := []string{"a", "b", "c", "d"}
	for i, res := range rep.Results {
		if res.Stack != wantOrder[i] {
			t.Fatalf("result %d: expected %s, got %s", i, wantOrder[i], res.Stack)
		}
	}
	if len(backend.calls) != 3 {
		t.Fatalf("expected 3 mutating calls, got %v", backend.calls)
	}
}

func TestReportFoldsPlanningFailures(t *testing.T) {
	var rep Report
	rep.Add(Result{Stack: "z", Err: errors.New("observe failed")})
	rep.Add(Result{Stack: "a", Action: Action{Kind: NoOp}})

	var partial *PartialFailureError
	if !errors.As(rep.Err(), &partial) {
		t.Fatalf("expected PartialFailureError, got %v", rep.Err())
	}
	if len(partial.Failed) != 1 || partial.Failed[0] != "z" {
		t.Fatalf("unexpected failed set: %v", partial.Failed)
	}
}
