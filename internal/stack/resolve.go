package stack

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/example/stacksync/internal/config"
	"github.com/mitchellh/go-homedir"
)

// Resolved is a stack declaration with paths turned into absolute local file
// references and all overrides folded in. It is the unit the reconciliation
// engine operates on.
type Resolved struct {
	Name        string
	ComposeFile string
	EnvFile     string
	EndpointID  int64
	Enabled     bool
}

// Resolve expands the requested stack names (empty means all declared
// stacks, sorted) into Resolved records. Paths resolve relative to the
// directory of the layer that declared the stack; a leading "~" expands to
// the home directory first.
func Resolve(eff *config.Effective, names []string) ([]Resolved, error) {
	if len(names) == 0 {
		names = eff.StackNames()
	} else {
		names = append([]string(nil), names...)
		sort.Strings(names)
	}

	resolved := make([]Resolved, 0, len(names))
	for _, name := range names {
		src, ok := eff.Stacks[name]
		if !ok {
			return nil, &config.StackNotFoundError{Name: name}
		}
		composePath, err := resolvePath(src.ComposeFile, src.Dir)
		if err != nil {
			return nil, fmt.Errorf("stack %s: %w", name, err)
		}
		r := Resolved{
			Name:        name,
			ComposeFile: composePath,
			EndpointID:  eff.EndpointID,
			Enabled:     src.Enabled == nil || *src.Enabled,
		}
		if src.EnvFile != "" {
			envPath, err := resolvePath(src.EnvFile, src.Dir)
			if err != nil {
				return nil, fmt.Errorf("stack %s: %w", name, err)
			}
			r.EnvFile = envPath
		}
		if src.EndpointID != nil {
			r.EndpointID = *src.EndpointID
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}

func resolvePath(path, baseDir string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand path %s: %w", path, err)
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Join(baseDir, expanded), nil
}
