// Package config loads the aisuite CLI configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inercia/go-aisuite/pkg/llm"
)

// Config holds the CLI configuration.
type Config struct {
	Provider   string                `yaml:"provider"`
	APIKey     string                `yaml:"api_key"`
	Model      string                `yaml:"model"`
	Timeout    Duration              `yaml:"timeout"`
	Generation llm.GenerationOptions `yaml:"generation"`
}

// Duration is a time.Duration read from a string such as "30s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return &cfg, nil
}

// DefaultPaths returns the locations searched when no config file is given.
func DefaultPaths() []string {
	paths := []string{"./aisuite.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "aisuite", "config.yaml"))
	}
	return paths
}

// LoadDefault loads the first existing file from DefaultPaths.
// It returns an empty Config when none exists.
func LoadDefault() (*Config, error) {
	for _, path := range DefaultPaths() {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return &Config{}, nil
}

// ClientConfig converts the file settings into an llm.ClientConfig.
func (c *Config) ClientConfig() llm.ClientConfig {
	return llm.ClientConfig{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   c.APIKey,
		Timeout:  time.Duration(c.Timeout),
	}
}

// GenerationOptions returns the default generation options from the file.
func (c *Config) GenerationOptions() llm.GenerationOptions {
	return c.Generation
}
