package plugins

import (
	"os"
	"path/filepath"
	"testing"
)

const goHookSource = `package main

func JobHooks() ([]map[string]any, error) {
	return []map[string]any{
		{
			"id": "draft-encode",
			"lines": []map[string]any{
				{"key": "ExtraInfo0", "value": "draft"},
			},
			"batch_mode": true,
		},
	}, nil
}`

func TestLoadGoHookDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "draft.go"), []byte(goHookSource), 0644); err != nil {
		t.Fatalf("write hook: %v", err)
	}
	hooks, err := LoadGoHookDir(dir)
	if err != nil {
		t.Fatalf("load go hooks: %v", err)
	}
	if len(hooks) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(hooks))
	}
	if hooks[0].Definition.ID != "draft-encode" || !hooks[0].Definition.BatchMode {
		t.Fatalf("unexpected definition: %+v", hooks[0].Definition)
	}
}

func TestLoadGoHookDirMissingFunc(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write broken hook: %v", err)
	}
	if _, err := LoadGoHookDir(dir); err == nil {
		t.Fatalf("expected error for missing JobHooks function")
	}
}
