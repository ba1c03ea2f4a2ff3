package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/stacksync/internal/config"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

const parentConfigTemplate = `# stack-sync connection settings, shared by every project below the home
# directory. Project directories layer their own stack-sync.toml on top.
host = %q
mode = %q
`

const portainerConfigExtra = `# endpoint_id = 2
# api_key is better supplied via the PORTAINER_API_KEY environment variable.
# api_key = ""
`

const sshConfigExtra = `# ssh_user = "deploy"
# ssh_key = "~/.ssh/id_ed25519"
host_dir = %q
`

const localConfigTemplate = `# Stacks declared here deploy to the host configured in the parent
# stack-sync.toml. Paths are relative to this file.

# [stacks.my-app]
# compose_file = "compose.yaml"
# env_file = ".env"
`

func newInitCommand(configPath *string) *cobra.Command {
	var mode string
	var host string
	var hostDir string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold the layered configuration",
		Long:  "init writes a parent config with connection settings into the home\ndirectory and a project config with a stack declaration stub into the\ncurrent directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != config.ModePortainer && mode != config.ModeSSH {
				return fmt.Errorf("unknown mode %q (expected %s or %s)", mode, config.ModePortainer, config.ModeSSH)
			}

			home, err := homedir.Dir()
			if err != nil {
				return fmt.Errorf("locate home directory: %w", err)
			}
			parentPath := filepath.Join(home, ".stack-sync.toml")

			localDir := *configPath
			if localDir == "" {
				localDir, err = os.Getwd()
				if err != nil {
					return err
				}
			}
			localPath := config.LocalLayerPath(localDir)

			parent := fmt.Sprintf(parentConfigTemplate, host, mode)
			switch mode {
			case config.ModePortainer:
				parent += portainerConfigExtra
			case config.ModeSSH:
				parent += fmt.Sprintf(sshConfigExtra, hostDir)
			}
			if err := writeScaffold(parentPath, parent, force); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", parentPath)

			// When init runs from the home directory the two layers collapse
			// into one file; the parent already covers it.
			if filepath.Dir(localPath) != filepath.Dir(parentPath) {
				if err := writeScaffold(localPath, localConfigTemplate, force); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", localPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", config.ModePortainer, "Deployment mode (portainer or ssh)")
	cmd.Flags().StringVar(&host, "host", "", "Remote host (Portainer base URL or ssh host)")
	cmd.Flags().StringVar(&hostDir, "host-dir", "/opt/stacks", "Remote directory for stack files (ssh mode)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config files")
	return cmd
}

func writeScaffold(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
