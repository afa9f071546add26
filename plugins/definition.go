package plugins

import (
	"fmt"
	"strings"
)

// HookDefinition describes one integration hook loaded from the project
// hooks directory. A hook contributes extra key=value lines to every job
// info descriptor written during a submission, the mechanism pipeline
// integrations use to tag jobs for downstream tooling.
type HookDefinition struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name,omitempty" yaml:"name,omitempty"`
	Lines     []HookLine `json:"lines,omitempty" yaml:"lines,omitempty"`
	BatchMode bool       `json:"batch_mode,omitempty" yaml:"batch_mode,omitempty"`
}

// HookLine is a single descriptor line contributed by a hook.
type HookLine struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Normalized returns a trimmed copy of the definition.
func (def HookDefinition) Normalized() HookDefinition {
	clone := HookDefinition{
		ID:        strings.TrimSpace(def.ID),
		Name:      strings.TrimSpace(def.Name),
		BatchMode: def.BatchMode,
	}
	if len(def.Lines) > 0 {
		clone.Lines = make([]HookLine, len(def.Lines))
		for i, line := range def.Lines {
			clone.Lines[i] = line.normalized()
		}
	}
	return clone
}

// Validate ensures the hook definition can be written into a descriptor
// without corrupting it.
func (def HookDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("hook: id is required")
	}
	if len(normalized.Lines) == 0 && !normalized.BatchMode {
		return fmt.Errorf("hook %s: defines no lines and does not set batch mode", normalized.ID)
	}
	for idx, line := range normalized.Lines {
		if err := line.validate(); err != nil {
			return fmt.Errorf("hook %s: lines[%d]: %w", normalized.ID, idx, err)
		}
	}
	return nil
}

func (line HookLine) normalized() HookLine {
	return HookLine{
		Key:   strings.TrimSpace(line.Key),
		Value: strings.TrimSpace(line.Value),
	}
}

func (line HookLine) validate() error {
	if line.Key == "" {
		return fmt.Errorf("key is required")
	}
	if strings.ContainsAny(line.Key, "=\n") {
		return fmt.Errorf("key %q contains '=' or a newline", line.Key)
	}
	if strings.Contains(line.Value, "\n") {
		return fmt.Errorf("value for %s contains a newline", line.Key)
	}
	return nil
}
