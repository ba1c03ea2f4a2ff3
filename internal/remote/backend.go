// Package remote abstracts the deployment target. The reconciliation engine
// sees only the Backend capability set; whether stacks land in Portainer or
// on an ssh host behind docker compose is invisible above this package.
package remote

import (
	"context"

	"github.com/example/stacksync/internal/stack"
)

// State is a backend-reported observation of one stack. Fingerprints are
// trailing-newline-normalized content hashes of whatever is currently
// deployed; the raw bodies ride along for diff rendering. Meta carries
// backend-specific display fields (ids, timestamps) for the view command.
type State struct {
	Exists             bool
	Running            bool
	ComposeFingerprint string
	EnvFingerprint     string
	ComposeBody        []byte
	EnvBody            []byte
	Meta               map[string]string
}

// Backend is the capability set both deployment variants implement.
// Observe is the only read; the other three mutate remote state.
type Backend interface {
	Observe(ctx context.Context, st stack.Resolved) (State, error)
	Deploy(ctx context.Context, st stack.Resolved, compose, env []byte) error
	SetRunning(ctx context.Context, st stack.Resolved, running bool) error
	Redeploy(ctx context.Context, st stack.Resolved) error

	// Target names the remote for reporting (host URL or ssh destination).
	Target() string
}
