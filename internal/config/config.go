package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds project-level settings loaded from codegraph.yml.
type Config struct {
	Include     []string `yaml:"include,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	MaxFiles    int      `yaml:"maxFiles,omitempty"`
	MaxFileSize int64    `yaml:"maxFileSize,omitempty"`
	BatchSize   int      `yaml:"batchSize,omitempty"`

	// ImportEdges selects which import specifiers become edges:
	// "relative" (default), "all", or "off".
	ImportEdges string `yaml:"importEdges,omitempty"`

	CrossFileCalls CrossFileCalls `yaml:"crossFileCalls,omitempty"`
	Provider       Provider       `yaml:"provider,omitempty"`

	Verbose bool `yaml:"verbose,omitempty"`
}

// CrossFileCalls configures the cross-file call resolver.
type CrossFileCalls struct {
	Enabled *bool `yaml:"enabled,omitempty"`
	EdgeCap int   `yaml:"edgeCap,omitempty"`
}

// On reports whether cross-file resolution is enabled. Defaults to true when
// unset.
func (c CrossFileCalls) On() bool {
	return c.Enabled == nil || *c.Enabled
}

// Provider configures the external symbol provider. An empty endpoint
// selects the built-in tree-sitter provider.
type Provider struct {
	Endpoint       string `yaml:"endpoint,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// Timeout returns the symbol-query deadline, or d when unset.
func (p Provider) Timeout(d time.Duration) time.Duration {
	if p.TimeoutSeconds > 0 {
		return time.Duration(p.TimeoutSeconds) * time.Second
	}
	return d
}

// Load attempts to read codegraph.yml or codegraph.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"codegraph.yml", "codegraph.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cfg, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		return cfg, nil
	}
	return &Config{}, nil
}

// LoadFile reads an explicitly named config file; a missing file is an error
// here, unlike Load.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	switch cfg.ImportEdges {
	case "", "relative", "all", "off":
	default:
		return nil, fmt.Errorf("importEdges: unknown mode %q", cfg.ImportEdges)
	}
	return &cfg, nil
}
