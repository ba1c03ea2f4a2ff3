package config

import (
	"fmt"
	"sort"
)

// Merge folds an ordered, nearest-first layer sequence into one Effective
// configuration.
//
// Scalar fields follow nearest-wins precedence: the first layer that sets a
// field supplies its value. The one exception is the Portainer API key,
// where a credential from the environment outranks every layer. Stack
// entries are a union across layers; when two layers declare the same stack
// name the nearer layer's whole declaration replaces the farther one's (no
// field-level merge across layers).
//
// Validation runs only after merging and reports every missing field in a
// single InvalidError rather than stopping at the first.
func Merge(layers []*Layer, creds Credentials) (*Effective, error) {
	eff := &Effective{Stacks: make(map[string]StackSource)}

	for _, layer := range layers {
		if eff.Host == "" {
			eff.Host = layer.Host
		}
		if eff.APIKey == "" {
			eff.APIKey = layer.fileAPIKey()
		}
		if eff.EndpointID == 0 && layer.EndpointID != nil {
			eff.EndpointID = *layer.EndpointID
		}
		if eff.Mode == "" {
			eff.Mode = layer.Mode
		}
		if eff.SSHUser == "" {
			eff.SSHUser = layer.SSHUser
		}
		if eff.SSHKey == "" {
			eff.SSHKey = layer.SSHKey
		}
		if eff.HostDir == "" {
			eff.HostDir = layer.HostDir
		}
		for name, decl := range layer.Stacks {
			if _, ok := eff.Stacks[name]; ok {
				continue
			}
			eff.Stacks[name] = StackSource{StackDeclaration: decl, Dir: layer.Dir}
		}
	}

	if creds.PortainerAPIKey != "" {
		eff.APIKey = creds.PortainerAPIKey
	}
	if eff.EndpointID == 0 {
		eff.EndpointID = DefaultEndpointID
	}
	if eff.Mode == "" {
		eff.Mode = ModePortainer
	}

	if err := validate(eff); err != nil {
		return nil, err
	}
	return eff, nil
}

func validate(eff *Effective) error {
	var problems []string

	switch eff.Mode {
	case ModePortainer:
		if eff.APIKey == "" {
			problems = append(problems, "portainer mode requires an api key (set portainer_api_key or the PORTAINER_API_KEY environment variable)")
		}
	case ModeSSH:
		if eff.HostDir == "" {
			problems = append(problems, "ssh mode requires host_dir")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown mode %q (use %q or %q)", eff.Mode, ModePortainer, ModeSSH))
	}
	if eff.Host == "" {
		problems = append(problems, "missing host")
	}

	names := make([]string, 0, len(eff.Stacks))
	for name := range eff.Stacks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if eff.Stacks[name].ComposeFile == "" {
			problems = append(problems, fmt.Sprintf("stack %q missing compose_file", name))
		}
	}

	if len(problems) > 0 {
		return &InvalidError{Problems: problems}
	}
	return nil
}
