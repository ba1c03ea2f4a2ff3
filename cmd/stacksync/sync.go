package main

import (
	"github.com/example/stacksync/internal/plan"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCommand(configPath, logLevel *string) *cobra.Command {
	var dryRun bool
	var verbose bool
	var parallel int
	cmd := &cobra.Command{
		Use:   "sync [STACK...]",
		Short: "Reconcile declared stacks against the remote host",
		Long:  "sync observes each declared stack on the remote and performs the single\naction that brings it in line: create, update, start, or stop. With no\narguments every declared stack is synced.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(*configPath, *logLevel)
			if err != nil {
				return err
			}
			stacks, err := sess.resolve(args)
			if err != nil {
				return err
			}
			sess.logger.Debug("planning sync",
				zap.Int("stacks", len(stacks)),
				zap.String("target", sess.backend.Target()),
				zap.Bool("dry_run", dryRun))

			p, failures := sess.buildSyncPlan(cmd.Context(), stacks)
			if verbose && !dryRun {
				for _, sp := range p.Stacks {
					if sp.Action.Kind == plan.Update && sp.Action.Diff != "" {
						sess.reporter.Preview("Would Update", sp.Stack.Name, sp.Action.Summary)
						sess.reporter.Detail(sp.Action.Diff)
					}
				}
			}

			exec := &plan.Executor{
				Backend:  sess.backend,
				Reporter: sess.reporter,
				Logger:   sess.logger,
				DryRun:   dryRun,
				Parallel: parallel,
			}
			rep := exec.Execute(cmd.Context(), p)
			return finish(rep, failures)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would change without touching the remote")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print unified diffs for stacks that would be updated")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Number of stacks to apply concurrently")
	return cmd
}
