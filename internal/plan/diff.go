package plan

import (
	"strings"

	"github.com/example/stacksync/internal/remote"
	"github.com/example/stacksync/internal/stack"
	"github.com/pmezard/go-difflib/difflib"
)

// renderDiff produces a unified diff between the deployed bodies and the
// local ones for the parts that changed.
func renderDiff(state remote.State, compose, env []byte, composeChanged, envChanged bool) string {
	var sections []string
	if composeChanged {
		if d := unified("compose (deployed)", "compose (local)", state.ComposeBody, compose); d != "" {
			sections = append(sections, d)
		}
	}
	if envChanged {
		remoteEnv := stack.FormatEnv(stack.ParseEnv(state.EnvBody))
		localEnv := stack.FormatEnv(stack.ParseEnv(env))
		if d := unified("env (deployed)", "env (local)", remoteEnv, localEnv); d != "" {
			sections = append(sections, d)
		}
	}
	return strings.Join(sections, "\n")
}

func unified(fromName, toName string, from, to []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(from)),
		B:        difflib.SplitLines(string(to)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return strings.TrimRight(diff, "\n")
}
