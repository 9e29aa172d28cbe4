package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagListen   = flag.String("listen", "", "Game connection listen address")
	flagModels   = flag.String("models", "", "Model config directory")
	flagAssets   = flag.String("assets", "", "Scene document directory")
	flagSkinAddr = flag.String("skin-addr", "", "Enable the skin server on this address")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagListen != "" {
		cfg.Server.ListenAddr = *flagListen
	}
	if *flagModels != "" {
		cfg.Models.ConfigDir = *flagModels
	}
	if *flagAssets != "" {
		cfg.Models.AssetDir = *flagAssets
	}
	if *flagSkinAddr != "" {
		cfg.SkinServer.Enabled = true
		cfg.SkinServer.Addr = *flagSkinAddr
	}
}
