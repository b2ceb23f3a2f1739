package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project is the parsed contents of a .sentra.yml project configuration
// file: the analysis level, plugin paths, baseline path, and ignore globs
// a single analyze/baseline/serve invocation needs beyond its CLI flags.
type Project struct {
	// Level is the strictness level, 1 (most permissive) through 9 (most
	// strict). Higher levels enable diagnostic codes that are too noisy for
	// a freshly-onboarded codebase. Defaults to 1 if omitted.
	Level int `yaml:"level,omitempty"`

	// Plugins lists Go plugin paths. It is only parsed from the file; no
	// command loads these plugins. Empty by default.
	Plugins []string `yaml:"plugins,omitempty"`

	// BaselinePath is the path to the baseline file (relative to the config
	// file's directory) consulted by Diff before reporting. Empty means no
	// baseline is used.
	BaselinePath string `yaml:"baseline,omitempty"`

	// Ignore is a list of doublestar glob patterns; files matching any
	// pattern are excluded from the scan phase.
	Ignore []string `yaml:"ignore,omitempty"`

	// Paths are the root directories or files to analyze when none are
	// given on the command line. Defaults to the config file's own
	// directory.
	Paths []string `yaml:"paths,omitempty"`
}

// LoadProject reads and parses a .sentra.yml file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseProject(data, path)
}

// ParseProject parses .sentra.yml content from bytes. The path argument is
// used only for error messages.
func ParseProject(data []byte, path string) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := p.validate(path); err != nil {
		return nil, err
	}
	p.setDefaults()
	return &p, nil
}

// FindConfig searches for .sentra.yml starting from dir and walking up to
// parent directories, the way a .gitignore is found. Returns the path to
// the config file and nil error if found, or an empty string and nil error
// if not found anywhere up to the filesystem root.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (p *Project) validate(path string) error {
	if p.Level < 0 || p.Level > 9 {
		return fmt.Errorf("%s: level must be between 0 and 9, got %d", path, p.Level)
	}
	return nil
}

func (p *Project) setDefaults() {
	if p.Level == 0 {
		p.Level = 1
	}
}

// ResolveBaselinePath returns BaselinePath resolved relative to configDir,
// or the empty string if no baseline is configured.
func (p *Project) ResolveBaselinePath(configDir string) string {
	if p.BaselinePath == "" {
		return ""
	}
	if filepath.IsAbs(p.BaselinePath) {
		return p.BaselinePath
	}
	return filepath.Join(configDir, p.BaselinePath)
}
