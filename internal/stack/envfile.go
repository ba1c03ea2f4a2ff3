// Package stack resolves stack declarations into deployable units and
// handles env-file content.
package stack

import (
	"fmt"
	"os"
	"strings"
)

// EnvVar is one KEY=value pair. The JSON field names match Portainer's
// stack Env payload.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseEnv reads KEY=value lines from env-file content. Blank lines and
// lines starting with '#' are ignored; lines without '=' are skipped.
// Values keep any '=' past the first.
func ParseEnv(content []byte) []EnvVar {
	var vars []EnvVar
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vars = append(vars, EnvVar{
			Name:  strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return vars
}

// ReadEnvFile parses the env file at path.
func ReadEnvFile(path string) ([]EnvVar, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return ParseEnv(content), nil
}

// FormatEnv renders vars back to KEY=value lines, one per line.
func FormatEnv(vars []EnvVar) []byte {
	var b strings.Builder
	for _, v := range vars {
		b.WriteString(v.Name)
		b.WriteByte('=')
		b.WriteString(v.Value)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// WriteEnvFile writes vars to path in KEY=value form.
func WriteEnvFile(path string, vars []EnvVar) error {
	if err := os.WriteFile(path, FormatEnv(vars), 0o644); err != nil {
		return fmt.Errorf("write env file %s: %w", path, err)
	}
	return nil
}
