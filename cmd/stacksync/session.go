package main

import (
	"context"
	"os"

	"github.com/example/stacksync/internal/config"
	"github.com/example/stacksync/internal/logging"
	"github.com/example/stacksync/internal/plan"
	"github.com/example/stacksync/internal/remote"
	"github.com/example/stacksync/internal/report"
	"github.com/example/stacksync/internal/stack"
	"go.uber.org/zap"
)

// session bundles the pieces every command needs: the merged configuration,
// the backend it selects, and the output channels.
type session struct {
	eff      *config.Effective
	backend  remote.Backend
	logger   *zap.Logger
	reporter *report.Reporter
}

func newSession(configPath, logLevel string) (*session, error) {
	logger, err := logging.New(logLevel)
	if err != nil {
		return nil, err
	}
	layers, err := config.LoadChain(configPath)
	if err != nil {
		return nil, err
	}
	eff, err := config.Merge(layers, config.Credentials{PortainerAPIKey: environCredentials()})
	if err != nil {
		return nil, err
	}
	backend, err := remote.New(eff, logger)
	if err != nil {
		return nil, err
	}
	return &session{
		eff:      eff,
		backend:  backend,
		logger:   logger,
		reporter: report.New(os.Stdout),
	}, nil
}

func (s *session) resolve(names []string) ([]stack.Resolved, error) {
	return stack.Resolve(s.eff, names)
}

// buildSyncPlan observes every resolved stack and decides its action. A
// failure to read local files or to observe the remote is recorded against
// that stack; siblings still get planned.
func (s *session) buildSyncPlan(ctx context.Context, stacks []stack.Resolved) (plan.Plan, []plan.Result) {
	var p plan.Plan
	var failures []plan.Result
	for _, st := range stacks {
		var compose, env []byte
		if st.Enabled {
			var err error
			compose, err = os.ReadFile(st.ComposeFile)
			if err != nil {
				failures = append(failures, plan.Result{Stack: st.Name, Err: err})
				s.reporter.Failed(st.Name, err)
				continue
			}
			if st.EnvFile != "" {
				env, err = os.ReadFile(st.EnvFile)
				if err != nil {
					failures = append(failures, plan.Result{Stack: st.Name, Err: err})
					s.reporter.Failed(st.Name, err)
					continue
				}
			}
		}
		state, err := s.backend.Observe(ctx, st)
		if err != nil {
			failures = append(failures, plan.Result{Stack: st.Name, Err: err})
			s.reporter.Failed(st.Name, err)
			continue
		}
		p.Stacks = append(p.Stacks, plan.StackPlan{
			Stack:   st,
			Action:  plan.Reconcile(st, state, compose, env),
			Compose: compose,
			Env:     env,
		})
	}
	return p, failures
}

// finish folds planning failures into the execution report and returns the
// invocation's overall error.
func finish(rep plan.Report, failures []plan.Result) error {
	for _, f := range failures {
		rep.Add(f)
	}
	return rep.Err()
}
