package main

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the repository checked for new releases.
const githubRepoSlug = "example/stacksync"

func newSelfUpdateCommand(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update stack-sync to the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			currentVersion := root.Version
			if currentVersion == "" || currentVersion == "dev" {
				return fmt.Errorf("cannot self-update a development build")
			}

			updater, err := selfupdate.NewUpdater(selfupdate.Config{})
			if err != nil {
				return fmt.Errorf("create updater: %w", err)
			}

			latest, found, err := updater.DetectLatest(cmd.Context(), selfupdate.ParseSlug(githubRepoSlug))
			if err != nil {
				return fmt.Errorf("detect latest version: %w", err)
			}
			if !found {
				return fmt.Errorf("no release found for %s", githubRepoSlug)
			}
			if !latest.GreaterThan(currentVersion) {
				fmt.Printf("%s is already the latest version\n", currentVersion)
				return nil
			}

			exe, err := selfupdate.ExecutablePath()
			if err != nil {
				return fmt.Errorf("locate executable: %w", err)
			}
			fmt.Printf("Updating %s to %s...\n", currentVersion, latest.Version())
			if err := updater.UpdateTo(cmd.Context(), latest, exe); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			fmt.Printf("Updated to %s\n", latest.Version())
			return nil
		},
	}
}
