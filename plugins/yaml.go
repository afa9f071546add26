package plugins

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// HookFile pairs a parsed hook definition with its on-disk source.
type HookFile struct {
	Definition HookDefinition
	Path       string
}

// ParseHookYAML decodes and validates a single hook definition payload.
func ParseHookYAML(data []byte) (HookDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return HookDefinition{}, fmt.Errorf("hook: definition payload is empty")
	}
	var def HookDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return HookDefinition{}, fmt.Errorf("hook: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return HookDefinition{}, err
	}
	return def.Normalized(), nil
}

// LoadHookFile reads and parses one YAML hook definition.
func LoadHookFile(path string) (HookFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HookFile{}, fmt.Errorf("hook: read %s: %w", path, err)
	}
	def, err := ParseHookYAML(data)
	if err != nil {
		return HookFile{}, fmt.Errorf("hook: %s: %w", path, err)
	}
	return HookFile{Definition: def, Path: filepath.Clean(path)}, nil
}

// LoadHookDir parses every *.yaml and *.yml hook under dir, in path
// order. A missing dir means no hooks.
func LoadHookDir(dir string) ([]HookFile, error) {
	paths, err := hookSources(dir, hasYAMLExt)
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	hooks := make([]HookFile, 0, len(paths))
	for _, path := range paths {
		hook, err := LoadHookFile(path)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, hook)
	}
	return hooks, nil
}

func hasYAMLExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
