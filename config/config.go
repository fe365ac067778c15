// Package config reads and writes the optional ghosttag configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the defaults applied when a flag is not given
type Config struct {
	Redundancy int    `yaml:"redundancy"`
	Seed       int64  `yaml:"seed"`
	Alpha      bool   `yaml:"alpha"`
	Compress   bool   `yaml:"compress"`
	Ledger     string `yaml:"ledger,omitempty"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Redundancy: 20,
		Seed:       42,
	}
}

// LoadConfig reads the configuration file at configPath. Settings missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig writes config to configPath, creating any parent directories
func SaveConfig(config *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns ~/.config/ghosttag/config.yaml, or a file in
// the current directory if there is no home directory
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "ghosttag.yaml"
	}
	return filepath.Join(homeDir, ".config", "ghosttag", "config.yaml")
}

// Exists reports whether there is a file at configPath
func Exists(configPath string) bool {
	_, err := os.Stat(configPath)
	return err == nil
}
