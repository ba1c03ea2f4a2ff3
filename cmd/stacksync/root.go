package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func newRootCommand() *cobra.Command {
	var configPath string
	logLevel := "info"
	cmd := &cobra.Command{
		Use:           "stack-sync",
		Short:         "Declarative compose stack deployment for Portainer and plain docker hosts",
		Long:          "stack-sync reconciles locally declared compose stacks against a remote host,\neither through the Portainer API or over ssh, creating, updating, starting\nand stopping stacks until the remote matches the declaration.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "C", "", "Path to a stack-sync.toml file or a directory containing one")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level for diagnostics (debug, info, warn, error)")

	syncCmd := newSyncCommand(&configPath, &logLevel)
	viewCmd := newViewCommand(&configPath, &logLevel)
	redeployCmd := newRedeployCommand(&configPath, &logLevel)
	importCmd := newImportCommand(&configPath, &logLevel)
	initCmd := newInitCommand(&configPath)
	cmd.AddCommand(
		syncCmd,
		viewCmd,
		redeployCmd,
		importCmd,
		initCmd,
		newSelfUpdateCommand(cmd),
	)
	cmd.Example = `  # Preview what a sync would change
  stack-sync sync --dry-run

  # Apply a single stack
  stack-sync sync my-app

  # Pull fresh images and recreate every enabled stack
  stack-sync redeploy`
	bindViper(cmd, syncCmd, viewCmd, redeployCmd, importCmd, initCmd)
	return cmd
}

// newEnviron builds the viper instance that maps STACKSYNC_* environment
// variables onto flag names.
func newEnviron() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("STACKSYNC")
	v.AutomaticEnv()
	return v
}

func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := newEnviron()

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
			if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		for _, cmd := range commands {
			flagSets := []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()}
			for _, fs := range flagSets {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Changed {
						return
					}
					if !v.IsSet(f.Name) {
						return
					}
					val := fmt.Sprintf("%v", v.Get(f.Name))
					if val != "" {
						_ = f.Value.Set(val)
					}
				})
			}
		}
	})
}

func environCredentials() string {
	return os.Getenv("PORTAINER_API_KEY")
}
