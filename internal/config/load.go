package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const appName = "ccmodels"

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// An explicit path wins over the standard locations.
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the wire protocol constrains.
func (c *Config) Validate() error {
	p := c.Protocol
	if p.MaxSlots < 1 || p.MaxSlots > 256 {
		return fmt.Errorf("protocol.max_slots must be in [1, 256], got %d", p.MaxSlots)
	}
	if p.MaxParts < 1 || p.MaxParts > 255 {
		return fmt.Errorf("protocol.max_parts must be in [1, 255], got %d", p.MaxParts)
	}
	if p.MaxAnims < 1 || p.MaxAnims > 4 {
		return fmt.Errorf("protocol.max_anims must be in [1, 4], got %d", p.MaxAnims)
	}
	if p.PartsVersion != 1 && p.PartsVersion != 2 {
		return fmt.Errorf("protocol.parts_version must be 1 or 2, got %d", p.PartsVersion)
	}
	if c.Skins.ProbeTTL <= 0 || c.Skins.FetchTimeout <= 0 {
		return fmt.Errorf("skins.probe_ttl and skins.fetch_timeout must be positive")
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		ConfigFile,
		filepath.Join(ConfigDir(), ConfigFile),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// loadFromFile merges a YAML file over the existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
