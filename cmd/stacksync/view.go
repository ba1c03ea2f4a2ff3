package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/example/stacksync/internal/plan"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// stackView is the per-stack record the view command renders. Field order
// matches the yaml output.
type stackView struct {
	Name     string            `yaml:"name"`
	State    string            `yaml:"state"`
	Enabled  bool              `yaml:"enabled"`
	InSync   bool              `yaml:"in_sync"`
	Endpoint int64             `yaml:"endpoint,omitempty"`
	Meta     map[string]string `yaml:"meta,omitempty"`
	Error    string            `yaml:"error,omitempty"`
}

// serviceLister is implemented by backends that can report per-service
// process listings (the ssh backend, via docker compose ps).
type serviceLister interface {
	ComposePS(ctx context.Context, name string) (string, error)
}

func newViewCommand(configPath, logLevel *string) *cobra.Command {
	output := "table"
	var services bool
	cmd := &cobra.Command{
		Use:   "view [STACK...]",
		Short: "Show the live remote state of declared stacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if services && output != "table" {
				return fmt.Errorf("--services requires table output")
			}
			sess, err := newSession(*configPath, *logLevel)
			if err != nil {
				return err
			}
			stacks, err := sess.resolve(args)
			if err != nil {
				return err
			}

			var views []stackView
			var failed []string
			for _, st := range stacks {
				v := stackView{Name: st.Name, Enabled: st.Enabled, Endpoint: st.EndpointID}
				state, err := sess.backend.Observe(cmd.Context(), st)
				if err != nil {
					v.State = "unknown"
					v.Error = err.Error()
					failed = append(failed, st.Name)
					views = append(views, v)
					continue
				}
				switch {
				case !state.Exists:
					v.State = "missing"
				case state.Running:
					v.State = "running"
				default:
					v.State = "stopped"
				}
				if state.Exists && st.Enabled {
					compose, err := os.ReadFile(st.ComposeFile)
					if err == nil {
						action := plan.Reconcile(st, state, compose, readEnvOrNil(st.EnvFile))
						v.InSync = action.Kind == plan.NoOp
					}
				}
				v.Meta = state.Meta
				views = append(views, v)
			}

			switch output {
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				if err := enc.Encode(views); err != nil {
					return err
				}
				if err := enc.Close(); err != nil {
					return err
				}
			case "table":
				renderViewTable(views, sess.backend.Target())
				if services {
					lister, ok := sess.backend.(serviceLister)
					if !ok {
						return fmt.Errorf("--services requires ssh mode")
					}
					for _, v := range views {
						if v.State != "running" {
							continue
						}
						ps, err := lister.ComposePS(cmd.Context(), v.Name)
						if err != nil {
							failed = append(failed, v.Name)
							continue
						}
						fmt.Printf("\n%s:\n%s", v.Name, ps)
					}
				}
			default:
				return fmt.Errorf("unknown output format %q (expected table or yaml)", output)
			}

			if len(failed) > 0 {
				sort.Strings(failed)
				return &plan.PartialFailureError{Failed: failed}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", output, "Output format (table or yaml)")
	cmd.Flags().BoolVarP(&services, "services", "s", false, "Also list each running stack's services (ssh mode)")
	return cmd
}

func renderViewTable(views []stackView, target string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("stacks on %s", target)
	t.AppendHeader(table.Row{"NAME", "STATE", "ENABLED", "IN SYNC", "UPDATED"})
	for _, v := range views {
		updated := v.Meta["updated"]
		if updated == "" {
			updated = v.Meta["created"]
		}
		inSync := "-"
		if v.State == "running" {
			inSync = fmt.Sprintf("%v", v.InSync)
		}
		state := v.State
		if v.Error != "" {
			state = "unknown: " + v.Error
		}
		t.AppendRow(table.Row{v.Name, state, v.Enabled, inSync, updated})
	}
	t.Render()
}

func readEnvOrNil(path string) []byte {
	if path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return content
}
