package main

import (
	"fmt"

	"github.com/example/stacksync/internal/plan"
	"github.com/spf13/cobra"
)

func newRedeployCommand(configPath, logLevel *string) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "redeploy [STACK...]",
		Short: "Pull fresh images and recreate deployed stacks",
		Long:  "redeploy forces a pull and recreate of what is already deployed remotely.\nLocal compose and env files are never consulted; use sync for that.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(*configPath, *logLevel)
			if err != nil {
				return err
			}
			stacks, err := sess.resolve(args)
			if err != nil {
				return err
			}

			var p plan.Plan
			var failures []plan.Result
			for _, st := range stacks {
				state, err := sess.backend.Observe(cmd.Context(), st)
				if err != nil {
					failures = append(failures, plan.Result{Stack: st.Name, Err: err})
					sess.reporter.Failed(st.Name, err)
					continue
				}
				action := plan.ForRedeploy(st, state)
				if !dryRun && action.Kind == plan.NoOp && action.Summary == "not deployed" {
					err := fmt.Errorf("stack %s is not deployed on %s", st.Name, sess.backend.Target())
					failures = append(failures, plan.Result{Stack: st.Name, Err: err})
					sess.reporter.Failed(st.Name, err)
					continue
				}
				p.Stacks = append(p.Stacks, plan.StackPlan{Stack: st, Action: action})
			}

			exec := &plan.Executor{
				Backend:  sess.backend,
				Reporter: sess.reporter,
				Logger:   sess.logger,
				DryRun:   dryRun,
			}
			rep := exec.Execute(cmd.Context(), p)
			return finish(rep, failures)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be redeployed without touching the remote")
	return cmd
}
