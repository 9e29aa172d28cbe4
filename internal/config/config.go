// Package config handles service configuration loading and management.
package config

import "time"

// Config holds all service settings.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Models     ModelsConfig     `yaml:"models"`
	Skins      SkinsConfig      `yaml:"skins"`
	SkinServer SkinServerConfig `yaml:"skin_server"`
	Protocol   ProtocolConfig   `yaml:"protocol"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the game connection listener settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ModelsConfig holds model storage locations.
type ModelsConfig struct {
	ConfigDir   string `yaml:"config_dir"`   // stored model configs
	AssetDir    string `yaml:"asset_dir"`    // scene documents
	CacheAssets bool   `yaml:"cache_assets"` // keep scene documents in memory
}

// SkinsConfig holds skin probing settings.
type SkinsConfig struct {
	URLTemplate  string        `yaml:"url_template"` // printf template, %s is the skin name
	ProbeTTL     time.Duration `yaml:"probe_ttl"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Fallback     string        `yaml:"fallback"`
	MaxBytes     int64         `yaml:"max_bytes"`
}

// SkinServerConfig holds the skin merge endpoint settings.
type SkinServerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`
	OverlayPath string `yaml:"overlay_path"`
	PublicIPURL string `yaml:"public_ip_url"`
}

// ProtocolConfig holds CustomModels wire limits.
type ProtocolConfig struct {
	MaxSlots     int `yaml:"max_slots"`
	MaxParts     int `yaml:"max_parts"`
	MaxAnims     int `yaml:"max_anims"`
	PartsVersion int `yaml:"parts_version"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: "0.0.0.0:25565",
		},
		Models: ModelsConfig{
			ConfigDir:   "models",
			AssetDir:    "models/scenes",
			CacheAssets: true,
		},
		Skins: SkinsConfig{
			URLTemplate:  "http://127.0.0.1:8080/skins/%s.png",
			ProbeTTL:     time.Hour,
			FetchTimeout: 10 * time.Second,
			Fallback:     "steve_layers",
			MaxBytes:     1 << 20,
		},
		SkinServer: SkinServerConfig{
			Enabled:     false,
			Addr:        "0.0.0.0:8081",
			OverlayPath: "",
			PublicIPURL: "https://api.ipify.org",
		},
		Protocol: ProtocolConfig{
			MaxSlots:     256,
			MaxParts:     64,
			MaxAnims:     4,
			PartsVersion: 2,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
