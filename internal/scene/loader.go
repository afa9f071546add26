package scene

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseSceneYAML decodes a scene manifest from YAML/JSON bytes.
func ParseSceneYAML(data []byte) (Scene, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Scene{}, fmt.Errorf("scene: manifest payload is empty")
	}
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scene{}, fmt.Errorf("scene: decode manifest: %w", err)
	}
	return s.Normalized()
}

// LoadSceneReader reads manifest data from an io.Reader.
func LoadSceneReader(r io.Reader) (Scene, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Scene{}, fmt.Errorf("scene: read manifest: %w", err)
	}
	return ParseSceneYAML(content)
}

// LoadSceneFile loads a scene manifest from an explicit file path.
func LoadSceneFile(path string) (Scene, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("scene: read %s: %w", path, err)
	}
	s, parseErr := ParseSceneYAML(content)
	if parseErr != nil {
		return Scene{}, fmt.Errorf("scene: %s: %w", path, parseErr)
	}
	return s, nil
}
