// Package config loads and validates the shipgate pipeline configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".shipgate.yml"

// Config is the top-level shipgate configuration.
type Config struct {
	// Repository is the image repository path within each registry,
	// e.g. "platform/api". Required.
	Repository string `yaml:"repository" toml:"repository"`

	// Branches controls which branch pushes publish at all.
	// Uses pattern syntax: regex, literal, or !negated. Empty = all branches.
	Branches []string `yaml:"branches" toml:"branches"`

	Build      BuildConfig      `yaml:"build" toml:"build"`
	Secrets    SecretsConfig    `yaml:"secrets" toml:"secrets"`
	Scan       ScanConfig       `yaml:"scan" toml:"scan"`
	Registries []RegistryConfig `yaml:"registries" toml:"registries"`
}

// Load reads configuration from a YAML or TOML file, chosen by extension.
// If path is empty, it tries the default file. Returns defaults if the
// default file doesn't exist; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Build:   DefaultBuildConfig(),
		Secrets: DefaultSecretsConfig(),
		Scan:    DefaultScanConfig(),
	}
}
