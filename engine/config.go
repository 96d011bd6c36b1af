package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level runtime configuration, loadable from a TOML
// file shipped next to the client.
type Config struct {
	// The application name, used in logs.
	Name string `toml:"name"`
	// Scheduling passes per second for the tick loop.
	TicksPerSecond int `toml:"ticks_per_second"`

	Assets AssetsConfig `toml:"assets"`
}

type AssetsConfig struct {
	// Directory holding bundles shipped with the client.
	BasePath string `toml:"base_path"`
	// Directory downloaded bundles are saved into.
	DownloadPath string `toml:"download_path"`
	// Remote base URL for bundle downloads. Empty disables downloading.
	DownloadURL string `toml:"download_url"`
	// Path of the manifest file produced by the packaging pipeline.
	ManifestPath string `toml:"manifest_path"`
	// Per-request download timeout in seconds. Zero means no timeout.
	DownloadTimeoutSeconds int `toml:"download_timeout_seconds"`
	// Zero-refcount entries kept cached before eviction. Zero keeps all.
	IdleCacheCapacity int `toml:"idle_cache_capacity"`
	// Evict cache entries whose backing files change on disk.
	WatchStorage bool `toml:"watch_storage"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:           "loadstone",
		TicksPerSecond: 60,
		Assets: AssetsConfig{
			BasePath:     "assets/bundles",
			DownloadPath: "assets/downloads",
			ManifestPath: "assets/manifest.json",
		},
	}
}

// LoadConfig reads a TOML config file, filling defaults for anything the
// file leaves out.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config '%s': %w", path, err)
	}
	if cfg.TicksPerSecond <= 0 {
		cfg.TicksPerSecond = 60
	}
	return cfg, nil
}

// DownloadTimeout returns the configured timeout as a duration.
func (a *AssetsConfig) DownloadTimeout() time.Duration {
	return time.Duration(a.DownloadTimeoutSeconds) * time.Second
}
