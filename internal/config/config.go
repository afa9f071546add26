// internal/config/config.go
//
// This package handles configuration and the .katana-submit directory
// structure. Every project that submits through this tool gets a
// .katana-submit/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// WorkDirName is the name of the directory we create in each project
	WorkDirName = ".katana-submit"

	defaultSceneManifest = "scene.yaml"
)

const defaultProjectConfigYAML = `# katana submitter project configuration
version: 1

# Scene manifest exported from Katana, relative to the project root.
scene: scene.yaml

# Integration hooks add extra key=value lines to every job file.
# Definitions live in .katana-submit/hooks as .yaml or .go files.
hooks:
  # disabled: true
  # dir: ../shared/hooks
`

// HooksConfig controls discovery of integration hook definitions.
type HooksConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Dir      string `yaml:"dir,omitempty"`
}

// ProjectConfig models .katana-submit/config.yaml.
type ProjectConfig struct {
	Version int         `yaml:"version"`
	Scene   string      `yaml:"scene,omitempty"`
	Hooks   HooksConfig `yaml:"hooks,omitempty"`
}

// Config holds the runtime configuration for one submitter session.
type Config struct {
	// ProjectDir is the directory where the user ran the submitter from
	ProjectDir string

	// WorkDir is ProjectDir/.katana-submit
	WorkDir string

	// FarmHome is the Deadline user home directory reported by the
	// repository. It is empty until ApplyFarmHome is called with the
	// result of a submission info query.
	FarmHome string

	Project ProjectConfig
}

// InitWorkDir creates the .katana-submit directory structure in the given
// project directory. Called on startup before anything else touches disk.
//
// Structure created:
// .katana-submit/
// ├── logs/    <- submission logbook
// └── hooks/   <- integration hook definitions (.yaml / .go)
func InitWorkDir(projectDir string) error {
	workDir := filepath.Join(projectDir, WorkDirName)
	dirs := []string{
		filepath.Join(workDir, "logs"),
		filepath.Join(workDir, "hooks"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(workDir, "config.yaml"))
}

// NewConfig creates a Config populated from the project's config.yaml.
// A missing config file is fine; defaults apply.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		WorkDir:    filepath.Join(projectDir, WorkDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.WorkDir, "logs")
}

// SubmitLogPath returns the path of the submission logbook file.
func (c *Config) SubmitLogPath() string {
	return filepath.Join(c.LogsDir(), "submit.log")
}

// HooksDir returns the directory scanned for integration hook definitions.
func (c *Config) HooksDir() string {
	if c.Project.Hooks.Dir != "" {
		return c.Project.Hooks.Dir
	}
	return filepath.Join(c.WorkDir, "hooks")
}

// HooksEnabled reports whether integration hooks should be loaded.
func (c *Config) HooksEnabled() bool {
	return !c.Project.Hooks.Disabled
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.WorkDir, "config.yaml")
}

// ScenePath resolves the scene manifest location. A non-empty override (from
// a command line flag) wins over the configured value.
func (c *Config) ScenePath(override string) string {
	candidate := strings.TrimSpace(override)
	if candidate == "" {
		candidate = c.Project.Scene
	}
	if candidate == "" {
		candidate = defaultSceneManifest
	}
	return resolvePath(c.ProjectDir, candidate)
}

// ApplyFarmHome records the Deadline user home directory once a submission
// info query has produced it.
func (c *Config) ApplyFarmHome(home string) {
	c.FarmHome = strings.TrimSpace(home)
}

// FarmTempDir returns the directory where job descriptor files are staged.
// Empty until ApplyFarmHome has been called.
func (c *Config) FarmTempDir() string {
	if c.FarmHome == "" {
		return ""
	}
	return filepath.Join(c.FarmHome, "temp")
}

// StickySettingsPath returns the per-user sticky settings file. Empty until
// ApplyFarmHome has been called; callers treat empty as "no sticky settings".
func (c *Config) StickySettingsPath() string {
	if c.FarmHome == "" {
		return ""
	}
	return filepath.Join(c.FarmHome, "settings", "katana_sticky.json")
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Scene:   defaultSceneManifest,
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Scene) == "" {
		pc.Scene = defaultSceneManifest
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Scene = strings.TrimSpace(pc.Scene)
	pc.Hooks.Dir = resolvePath(base, pc.Hooks.Dir)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if strings.TrimSpace(pc.Scene) == "" {
		return fmt.Errorf("scene is required")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
