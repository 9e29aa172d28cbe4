package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Protocol.MaxSlots != 256 {
		t.Errorf("expected 256 slots, got %d", cfg.Protocol.MaxSlots)
	}
	if cfg.Protocol.MaxParts != 64 {
		t.Errorf("expected 64 parts, got %d", cfg.Protocol.MaxParts)
	}
	if cfg.Protocol.MaxAnims != 4 {
		t.Errorf("expected 4 anims, got %d", cfg.Protocol.MaxAnims)
	}
	if cfg.Protocol.PartsVersion != 2 {
		t.Errorf("expected parts version 2, got %d", cfg.Protocol.PartsVersion)
	}

	if cfg.Skins.ProbeTTL != time.Hour {
		t.Errorf("expected probe ttl 1h, got %v", cfg.Skins.ProbeTTL)
	}
	if cfg.Skins.Fallback != "steve_layers" {
		t.Errorf("expected fallback steve_layers, got %s", cfg.Skins.Fallback)
	}
	if !strings.Contains(cfg.Skins.URLTemplate, "%s") {
		t.Errorf("expected url template with %%s, got %s", cfg.Skins.URLTemplate)
	}

	if cfg.SkinServer.Enabled {
		t.Error("expected skin server to be disabled by default")
	}
	if !cfg.Models.CacheAssets {
		t.Error("expected asset cache to be enabled by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
server:
  listen_addr: "127.0.0.1:9000"

models:
  config_dir: "/srv/models"
  asset_dir: "/srv/scenes"
  cache_assets: false

skins:
  url_template: "https://skins.example.com/%s.png"
  probe_ttl: 30m
  fetch_timeout: 3s

skin_server:
  enabled: true
  addr: ":8088"
  overlay_path: "overlay.png"

protocol:
  max_slots: 128
  parts_version: 1

logging:
  level: "debug"
  log_file: "models.log"
  json: true
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("expected listen addr 127.0.0.1:9000, got %s", cfg.Server.ListenAddr)
	}
	if cfg.Models.ConfigDir != "/srv/models" || cfg.Models.AssetDir != "/srv/scenes" || cfg.Models.CacheAssets {
		t.Errorf("unexpected models section %+v", cfg.Models)
	}
	if cfg.Skins.ProbeTTL != 30*time.Minute {
		t.Errorf("expected probe ttl 30m, got %v", cfg.Skins.ProbeTTL)
	}
	if cfg.Skins.FetchTimeout != 3*time.Second {
		t.Errorf("expected fetch timeout 3s, got %v", cfg.Skins.FetchTimeout)
	}
	if cfg.Skins.Fallback != "steve_layers" {
		t.Errorf("expected unset fallback to keep default, got %s", cfg.Skins.Fallback)
	}
	if !cfg.SkinServer.Enabled || cfg.SkinServer.OverlayPath != "overlay.png" {
		t.Errorf("unexpected skin server section %+v", cfg.SkinServer)
	}
	if cfg.Protocol.MaxSlots != 128 || cfg.Protocol.PartsVersion != 1 {
		t.Errorf("unexpected protocol section %+v", cfg.Protocol)
	}
	if cfg.Protocol.MaxParts != 64 {
		t.Errorf("expected unset max_parts to keep default, got %d", cfg.Protocol.MaxParts)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "models.log" || !cfg.Logging.JSON {
		t.Errorf("unexpected logging section %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
protocol:
  max_slots: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero slots", func(c *Config) { c.Protocol.MaxSlots = 0 }},
		{"too many slots", func(c *Config) { c.Protocol.MaxSlots = 257 }},
		{"too many parts", func(c *Config) { c.Protocol.MaxParts = 300 }},
		{"too many anims", func(c *Config) { c.Protocol.MaxAnims = 5 }},
		{"bad parts version", func(c *Config) { c.Protocol.PartsVersion = 3 }},
		{"zero ttl", func(c *Config) { c.Skins.ProbeTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("protocol:\n  max_slots: 10\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "listen flag",
			setup: func() { *flagListen = ":7000" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddr != ":7000" {
					t.Errorf("expected listen addr :7000, got %s", cfg.Server.ListenAddr)
				}
			},
			teardown: func() { *flagListen = "" },
		},
		{
			name: "storage flags",
			setup: func() {
				*flagModels = "/tmp/models"
				*flagAssets = "/tmp/scenes"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Models.ConfigDir != "/tmp/models" {
					t.Errorf("expected config dir /tmp/models, got %s", cfg.Models.ConfigDir)
				}
				if cfg.Models.AssetDir != "/tmp/scenes" {
					t.Errorf("expected asset dir /tmp/scenes, got %s", cfg.Models.AssetDir)
				}
			},
			teardown: func() {
				*flagModels = ""
				*flagAssets = ""
			},
		},
		{
			name:  "skin server flag",
			setup: func() { *flagSkinAddr = ":9999" },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.SkinServer.Enabled || cfg.SkinServer.Addr != ":9999" {
					t.Errorf("expected skin server enabled on :9999, got %+v", cfg.SkinServer)
				}
			},
			teardown: func() { *flagSkinAddr = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
models:
  config_dir: "/from/file"
  asset_dir: "/file/scenes"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagModels = "/from/flag"
	defer func() {
		*flagConfig = ""
		*flagModels = ""
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Models.ConfigDir != "/from/flag" {
		t.Errorf("expected config dir from flag, got %s", cfg.Models.ConfigDir)
	}
	if cfg.Models.AssetDir != "/file/scenes" {
		t.Errorf("expected asset dir from file, got %s", cfg.Models.AssetDir)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Protocol.MaxSlots = 64
	cfg.Skins.ProbeTTL = 5 * time.Minute
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Protocol.MaxSlots != 64 || loaded.Skins.ProbeTTL != 5*time.Minute {
		t.Errorf("unexpected reloaded config %+v", loaded)
	}
}

func TestSaveTo_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Protocol.MaxSlots = 0
	if err := cfg.SaveTo(path); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected nothing written, got %v", err)
	}
}
