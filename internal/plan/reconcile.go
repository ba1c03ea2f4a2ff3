package plan

import (
	"strings"

	"github.com/example/stacksync/internal/remote"
	"github.com/example/stacksync/internal/stack"
)

// Reconcile computes the single action that makes the remote match the
// local declaration. It is pure: the only backend interaction is the
// Observe call that produced state, performed by the caller.
//
// State transitions outrank content changes: a disabled stack whose compose
// file also changed is stopped on this sync, and the content difference is
// re-evaluated on a later sync once it is enabled again. This keeps a stack
// the user wanted stopped from being restarted by an update.
func Reconcile(st stack.Resolved, state remote.State, compose, env []byte) Action {
	if !st.Enabled {
		switch {
		case state.Exists && state.Running:
			return Action{Stack: st.Name, Kind: SetDisabled, Summary: "disabled locally, running remotely"}
		case state.Exists:
			return Action{Stack: st.Name, Kind: NoOp, Summary: "disabled, already stopped"}
		default:
			return Action{Stack: st.Name, Kind: NoOp, Summary: "disabled, not deployed"}
		}
	}

	if !state.Exists {
		return Action{Stack: st.Name, Kind: Create, Summary: "not deployed remotely"}
	}
	if !state.Running {
		return Action{Stack: st.Name, Kind: SetEnabled, Summary: "deployed but stopped"}
	}

	composeChanged := remote.Fingerprint(compose) != state.ComposeFingerprint
	envChanged := false
	if st.EnvFile != "" {
		envChanged = remote.EnvFingerprint(stack.ParseEnv(env)) != state.EnvFingerprint
	}

	if composeChanged || envChanged {
		var parts []string
		if composeChanged {
			parts = append(parts, "compose changed")
		}
		if envChanged {
			parts = append(parts, "env changed")
		}
		return Action{
			Stack:   st.Name,
			Kind:    Update,
			Summary: strings.Join(parts, ", "),
			Diff:    renderDiff(state, compose, env, composeChanged, envChanged),
		}
	}
	return Action{Stack: st.Name, Kind: NoOp, Summary: "up to date"}
}

// ForRedeploy decides the redeploy action. It never reads local content:
// redeploy is issued unconditionally against whatever is deployed remotely.
func ForRedeploy(st stack.Resolved, state remote.State) Action {
	if !st.Enabled {
		return Action{Stack: st.Name, Kind: NoOp, Summary: "disabled"}
	}
	if !state.Exists {
		return Action{Stack: st.Name, Kind: NoOp, Summary: "not deployed"}
	}
	return Action{Stack: st.Name, Kind: Redeploy, Summary: "pull images and recreate"}
}
