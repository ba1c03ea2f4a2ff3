package config

import (
	"fmt"
	"strings"
)

// NotFoundError reports an explicitly requested config path that does not
// exist or holds no config file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config not found at %s", e.Path)
}

// InvalidError reports a config file that failed to parse, or an effective
// configuration missing required fields. Problems lists every missing field
// found in one validation pass.
type InvalidError struct {
	Path     string
	Problems []string
	Err      error
}

func (e *InvalidError) Error() string {
	switch {
	case e.Err != nil && e.Path != "":
		return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("invalid config: %v", e.Err)
	case len(e.Problems) > 0:
		return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
	default:
		return "invalid config"
	}
}

func (e *InvalidError) Unwrap() error { return e.Err }

// StackNotFoundError reports a requested stack name absent from the
// effective configuration.
type StackNotFoundError struct {
	Name string
}

func (e *StackNotFoundError) Error() string {
	return fmt.Sprintf("stack %q not found in config", e.Name)
}
