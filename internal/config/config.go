// Package config loads the harness configuration file used by the mcptest
// CLI: named server definitions plus snapshot settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "MCPTEST_CONFIG"

const defaultConfigPath = "mcptest.yaml"

// Server is one named server entry in the config file.
type Server struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Config is the harness configuration file.
type Config struct {
	SnapshotDir     string            `yaml:"snapshot_dir"`
	UpdateSnapshots bool              `yaml:"update_snapshots"`
	Servers         map[string]Server `yaml:"servers"`
}

// Load reads the config at path, falling back to the MCPTEST_CONFIG
// environment variable and then mcptest.yaml. A missing file yields the
// defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		SnapshotDir: "__snapshots__",
		Servers:     map[string]Server{},
	}

	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			path = defaultConfigPath
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Servers == nil {
		cfg.Servers = map[string]Server{}
	}
	return cfg, nil
}

// Lookup resolves a named server entry.
func (c *Config) Lookup(name string) (Server, error) {
	server, ok := c.Servers[name]
	if !ok {
		return Server{}, fmt.Errorf("server %q is not defined in the configuration", name)
	}
	return server, nil
}
