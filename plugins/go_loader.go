package plugins

import (
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

const goHookFuncName = "JobHooks"

// LoadGoHookDir interprets every .go file under dir and collects the
// definitions its JobHooks() function declares. Files run in path order
// and definitions keep their declared order within a file.
func LoadGoHookDir(dir string) ([]HookFile, error) {
	paths, err := hookSources(dir, func(name string) bool {
		return filepath.Ext(name) == ".go"
	})
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	var hooks []HookFile
	for _, path := range paths {
		fromFile, err := loadGoHookFile(path)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, fromFile...)
	}
	return hooks, nil
}

// loadGoHookFile runs path in a fresh interpreter and bridges each raw
// definition through the YAML parser, so Go hooks face the same
// validation as YAML ones.
func loadGoHookFile(path string) ([]HookFile, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("hook: interpreter symbols for %s: %w", path, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("hook: interpret %s: %w", path, err)
	}
	fn, err := i.Eval(goHookFuncName)
	if err != nil {
		return nil, fmt.Errorf("hook: %s must define %s() ([]map[string]any, error): %w", path, goHookFuncName, err)
	}
	raws, err := callHookFunc(fn)
	if err != nil {
		return nil, fmt.Errorf("hook: %s: %w", path, err)
	}
	hooks := make([]HookFile, 0, len(raws))
	for idx, raw := range raws {
		payload, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("hook: %s definition[%d]: %w", path, idx, err)
		}
		def, err := ParseHookYAML(payload)
		if err != nil {
			return nil, fmt.Errorf("hook: %s definition[%d]: %w", path, idx, err)
		}
		hooks = append(hooks, HookFile{Definition: def, Path: fmt.Sprintf("%s#%d", path, idx+1)})
	}
	return hooks, nil
}

// callHookFunc invokes the interpreted JobHooks value, accepting both
// the one and two return forms.
func callHookFunc(fn reflect.Value) ([]map[string]any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goHookFuncName)
	}
	out := fn.Call(nil)
	switch len(out) {
	case 1:
	case 2:
		if err := secondReturnError(out[1]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goHookFuncName)
	}
	return rawDefinitions(out[0])
}

func secondReturnError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	if e, ok := v.Interface().(error); ok {
		return e
	}
	return fmt.Errorf("%s returned a non-error second value", goHookFuncName)
}

// rawDefinitions unpacks the first return value. Interpreted code may
// hand back []map[string]any directly or any slice whose elements
// assert to map[string]any.
func rawDefinitions(v reflect.Value) ([]map[string]any, error) {
	if defs, ok := v.Interface().([]map[string]any); ok {
		return defs, nil
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return []map[string]any", goHookFuncName)
	}
	defs := make([]map[string]any, v.Len())
	for i := range defs {
		m, ok := v.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not map[string]any", goHookFuncName, i)
		}
		defs[i] = m
	}
	return defs, nil
}
