package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
)

// LoadLayer parses a single config file. The returned layer records the
// absolute path and directory it was loaded from.
func LoadLayer(path string) (*Layer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}
	var layer Layer
	if _, err := toml.DecodeFile(abs, &layer); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: abs}
		}
		return nil, &InvalidError{Path: abs, Err: err}
	}
	layer.Path = abs
	layer.Dir = filepath.Dir(abs)
	return &layer, nil
}

// LoadChain produces the ordered layer sequence for an invocation,
// nearest-first.
//
// configPath may be empty (start the walk at the working directory), a
// directory (start the walk there; the directory must contain a config
// file), or a file (that file becomes the nearest layer and the walk
// continues from its directory's parent). An explicitly requested path that
// does not exist, or an explicitly requested directory holding no config
// file, is a NotFoundError. Missing ancestor configs are not errors.
func LoadChain(configPath string) ([]*Layer, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("determine home directory: %w", err)
	}
	exists := func(path string) bool {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}

	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		return loadAll(LocateLayers(wd, home, exists))
	}

	expanded, err := homedir.Expand(configPath)
	if err != nil {
		return nil, fmt.Errorf("expand config path %s: %w", configPath, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", configPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &NotFoundError{Path: abs}
	}

	if info.IsDir() {
		paths := LocateLayers(abs, home, exists)
		// The requested directory itself must contribute the local layer.
		if len(paths) == 0 || filepath.Dir(paths[0]) != filepath.Clean(abs) {
			return nil, &NotFoundError{Path: filepath.Join(abs, dotConfigName)}
		}
		return loadAll(paths)
	}

	// Explicit file: it is the local layer; ancestors start above its
	// directory so the same directory is not scanned twice. A file living
	// in the home directory itself has no ancestors to walk; starting at
	// home's parent would push the walk above the home boundary.
	paths := []string{abs}
	dir := filepath.Dir(abs)
	if dir != filepath.Clean(home) {
		if parent := filepath.Dir(dir); parent != dir {
			paths = append(paths, LocateLayers(parent, home, exists)...)
		}
	}
	return loadAll(paths)
}

func loadAll(paths []string) ([]*Layer, error) {
	layers := make([]*Layer, 0, len(paths))
	for _, path := range paths {
		layer, err := LoadLayer(path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// LocalLayerPath returns where the local config file for dir lives (or would
// live), preferring an existing file over the default dotfile name.
func LocalLayerPath(dir string) string {
	for _, name := range []string{dotConfigName, plainConfigName} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return filepath.Join(dir, dotConfigName)
}
