// main.go bootstraps stack-sync: it builds the root Cobra command and
// executes with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/stacksync/internal/config"
	"github.com/example/stacksync/internal/remote"
	"github.com/spf13/pflag"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
}

func errorMessage(err error) string {
	message := err.Error()

	var notFound *config.NotFoundError
	var invalid *config.InvalidError
	var unavailable *remote.UnavailableError
	var rejected *remote.RejectedError
	switch {
	case errors.As(err, &notFound):
		message = fmt.Sprintf("%s\nHint: run 'stack-sync init' to scaffold a configuration, or pass -C to point at one.", err)
	case errors.As(err, &invalid) && len(invalid.Problems) > 0:
		message = "invalid config:"
		for _, p := range invalid.Problems {
			message += fmt.Sprintf("\n  - %s", p)
		}
	case errors.As(err, &unavailable):
		message = fmt.Sprintf("%s\nHint: verify the host is reachable and the configured mode matches what it runs.", err)
	case errors.As(err, &rejected) && (rejected.Status == 401 || rejected.Status == 403):
		message = fmt.Sprintf("%s\nHint: the API key was rejected. Set PORTAINER_API_KEY or api_key in the configuration.", err)
	}
	return message
}
