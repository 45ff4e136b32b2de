package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the optional YAML file, overlays the environment, applies
// defaults and validates. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
