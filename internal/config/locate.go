package config

import "path/filepath"

// Candidate filenames checked in each directory, dotfile first.
const (
	dotConfigName   = ".stack-sync.toml"
	plainConfigName = "stack-sync.toml"
)

// FileExistsFunc probes for a regular file. Injected so the walk is testable
// without touching the real filesystem.
type FileExistsFunc func(path string) bool

// LocateLayers walks from startDir up through its ancestors, returning the
// path of the first candidate config file found in each directory,
// nearest-first. The walk stops once the home directory has been checked;
// when homeDir is not an ancestor of startDir it stops at the filesystem
// root instead. Directories without a config file contribute nothing.
func LocateLayers(startDir, homeDir string, exists FileExistsFunc) []string {
	var found []string
	dir := filepath.Clean(startDir)
	home := filepath.Clean(homeDir)
	for {
		if path, ok := candidateIn(dir, exists); ok {
			found = append(found, path)
		}
		if dir == home {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return found
}

func candidateIn(dir string, exists FileExistsFunc) (string, bool) {
	for _, name := range []string{dotConfigName, plainConfigName} {
		path := filepath.Join(dir, name)
		if exists(path) {
			return path, true
		}
	}
	return "", false
}
