// Package config locates, parses, and merges the layered stack-sync
// configuration. A layer is one TOML file (".stack-sync.toml" or
// "stack-sync.toml") contributing a subset of global settings and/or stack
// declarations; the chain of layers from the working directory up to the home
// directory folds into a single effective configuration, nearest layer first.
package config

import "sort"

// StackDeclaration is one [stacks.<name>] table from a config file. Paths are
// relative to the directory of the layer that declared the stack.
type StackDeclaration struct {
	ComposeFile string `toml:"compose_file"`
	EnvFile     string `toml:"env_file"`
	EndpointID  *int64 `toml:"endpoint_id"`
	Enabled     *bool  `toml:"enabled"`
}

// Layer is one parsed config file. Optional scalar fields are left at their
// zero value when the file does not set them; pointer fields distinguish
// "absent" from an explicit zero. Layers are immutable once parsed.
type Layer struct {
	Host            string `toml:"host"`
	APIKey          string `toml:"api_key"`
	PortainerAPIKey string `toml:"portainer_api_key"`
	EndpointID      *int64 `toml:"endpoint_id"`
	Mode            string `toml:"mode"`
	SSHUser         string `toml:"ssh_user"`
	SSHKey          string `toml:"ssh_key"`
	HostDir         string `toml:"host_dir"`

	Stacks map[string]StackDeclaration `toml:"stacks"`

	// Path and Dir record where the layer came from; Dir anchors relative
	// stack paths during resolution.
	Path string `toml:"-"`
	Dir  string `toml:"-"`
}

// fileAPIKey returns the layer's key, accepting both accepted spellings.
func (l *Layer) fileAPIKey() string {
	if l.APIKey != "" {
		return l.APIKey
	}
	return l.PortainerAPIKey
}

const (
	// ModePortainer deploys through the Portainer HTTP API.
	ModePortainer = "portainer"
	// ModeSSH deploys by writing files and running docker compose over ssh.
	ModeSSH = "ssh"

	// DefaultEndpointID matches Portainer's first user-created environment.
	DefaultEndpointID int64 = 2
)

// StackSource pairs a stack declaration with the directory of the layer that
// declared it.
type StackSource struct {
	StackDeclaration
	Dir string
}

// Effective is the merge result of a layer chain: exactly one value per
// global field and a union of all stack declarations keyed by name.
type Effective struct {
	Host       string
	APIKey     string
	EndpointID int64
	Mode       string
	SSHUser    string
	SSHKey     string
	HostDir    string

	Stacks map[string]StackSource
}

// StackNames returns the declared stack names in sorted order.
func (e *Effective) StackNames() []string {
	names := make([]string, 0, len(e.Stacks))
	for name := range e.Stacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Credentials carries secrets sourced from the process environment. They are
// threaded into Merge explicitly so precedence over file-based keys is a
// single rule evaluated in one place.
type Credentials struct {
	PortainerAPIKey string
}
