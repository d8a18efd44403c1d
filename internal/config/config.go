// Package config loads the project-level YAML configuration for the code
// intelligence engine: Symbol Store sizing and the supplementary project
// list (spec.md §6's enumerated options).
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/codeintel/internal/symbolstore"
)

// SupplementaryProjectConfig describes one read-only project folded into
// the cross-project graph (spec.md §6).
type SupplementaryProjectConfig struct {
	Name        string   `yaml:"name"`
	Path        string   `yaml:"path"`
	Enabled     bool     `yaml:"enabled"`
	Priority    int      `yaml:"priority"`
	Languages   []string `yaml:"languages,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// ProjectConfig is the top-level codeintel.yml/codeintel.yaml shape.
type ProjectConfig struct {
	Storage       symbolstore.StorageConfig    `yaml:"storage"`
	Supplementary []SupplementaryProjectConfig `yaml:"supplementary,omitempty"`
}

// Load attempts to read codeintel.yml or codeintel.yaml from dir, applying
// storage defaults to zero-valued fields. Returns a default config (not an
// error) if no config file exists, matching the teacher's "zero value, not
// error" convention.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"codeintel.yml", "codeintel.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cfg := &ProjectConfig{Storage: symbolstore.DefaultStorageConfig()}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return &ProjectConfig{Storage: symbolstore.DefaultStorageConfig()}, nil
}

// EnabledSupplementaryProjects filters out disabled entries, matching the
// registry's construction step (spec.md §4.E).
func (c *ProjectConfig) EnabledSupplementaryProjects() []SupplementaryProjectConfig {
	var out []SupplementaryProjectConfig
	for _, p := range c.Supplementary {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}
