package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NinjaCats/deadline-katana/internal/config"
	"github.com/NinjaCats/deadline-katana/internal/job"
)

// LoadProjectHooks discovers YAML and Go hook definitions under the
// project's hooks directory. Hooks can be switched off in the project
// config, and an absent directory simply means no hooks.
func LoadProjectHooks(cfg *config.Config) ([]HookFile, error) {
	if cfg == nil || !cfg.HooksEnabled() {
		return nil, nil
	}
	hooks, err := loadAllHookFiles(cfg.HooksDir())
	if err != nil {
		return nil, err
	}
	if len(hooks) == 0 {
		return nil, nil
	}
	seen := make(map[string]string)
	for _, hook := range hooks {
		id := hook.Definition.ID
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("hook: duplicate hook id %s (%s and %s)", id, existing, hook.Path)
		}
		seen[id] = hook.Path
	}
	return hooks, nil
}

func loadAllHookFiles(dir string) ([]HookFile, error) {
	yamlHooks, err := LoadHookDir(dir)
	if err != nil {
		return nil, err
	}
	goHooks, err := LoadGoHookDir(dir)
	if err != nil {
		return nil, err
	}
	return append(yamlHooks, goHooks...), nil
}

// hookSources lists the files under dir whose name passes match, sorted
// by path. A blank or missing dir yields nothing.
func hookSources(dir string, match func(string) bool) ([]string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hook: read %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && match(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ExtraJobLines flattens hook contributions into descriptor lines, hooks
// in load order and lines in declaration order within each hook. The
// second result reports whether any hook asks for batch grouping, which
// names a batch even on a lone job.
func ExtraJobLines(hooks []HookFile) ([]job.Pair, bool) {
	var lines []job.Pair
	batch := false
	for _, hook := range hooks {
		for _, line := range hook.Definition.Lines {
			lines = append(lines, job.Pair{Key: line.Key, Value: line.Value})
		}
		if hook.Definition.BatchMode {
			batch = true
		}
	}
	return lines, batch
}
