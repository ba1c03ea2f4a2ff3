package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/stacksync/internal/config"
	"github.com/example/stacksync/internal/stack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCommand(configPath, logLevel *string) *cobra.Command {
	var outDir string
	var force bool
	cmd := &cobra.Command{
		Use:   "import STACK",
		Short: "Pull a deployed stack's files into the local declaration",
		Long:  "import fetches the compose file and environment of a stack that already\nruns remotely, writes them next to the local configuration, and appends a\n[stacks.NAME] declaration so later syncs manage it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			sess, err := newSession(*configPath, *logLevel)
			if err != nil {
				return err
			}

			// The stack need not be declared yet; observe it directly.
			st := stack.Resolved{Name: name, EndpointID: sess.eff.EndpointID, Enabled: true}
			state, err := sess.backend.Observe(cmd.Context(), st)
			if err != nil {
				return err
			}
			if !state.Exists {
				return fmt.Errorf("stack %s is not deployed on %s", name, sess.backend.Target())
			}

			if outDir == "" {
				outDir = "."
			}
			composeFile := filepath.Join(outDir, name+".compose.yaml")
			envFile := filepath.Join(outDir, name+".env")

			if !force {
				for _, p := range []string{composeFile, envFile} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", p)
					}
				}
			}

			if err := os.WriteFile(composeFile, state.ComposeBody, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", composeFile, err)
			}
			hasEnv := len(state.EnvBody) > 0
			if hasEnv {
				if err := stack.WriteEnvFile(envFile, stack.ParseEnv(state.EnvBody)); err != nil {
					return err
				}
			}

			target := config.LocalLayerPath(outDir)
			if err := appendStackDeclaration(target, name, filepath.Base(composeFile), filepath.Base(envFile), hasEnv); err != nil {
				return err
			}

			sess.logger.Info("imported stack",
				zap.String("stack", name),
				zap.String("compose_file", composeFile),
				zap.Bool("env", hasEnv))
			fmt.Printf("Imported %s into %s\n", name, target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "dir", "d", ".", "Directory to write the imported files into")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	return cmd
}

// appendStackDeclaration adds a [stacks.NAME] table to the config file,
// creating the file when absent. Existing content is left untouched.
func appendStackDeclaration(path, name, composeFile, envFile string, hasEnv bool) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	decl := fmt.Sprintf("\n[stacks.%q]\ncompose_file = %q\n", name, composeFile)
	if hasEnv {
		decl += fmt.Sprintf("env_file = %q\n", envFile)
	}
	if _, err := f.WriteString(decl); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}
