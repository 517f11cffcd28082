// Package config loads the daemon's TOML configuration file and applies
// defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultConfigPath is the configuration file consulted when none is given.
const DefaultConfigPath = ".orchd.toml"

// Duration wraps time.Duration so TOML values can be written as "30s" or "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Config is the full daemon configuration.
// DefaultConfig or a Loader should be used to create instances of Config.
type Config struct {
	API       APIConfig                 `toml:"api"`
	Registry  RegistryConfig            `toml:"registry"`
	Status    StatusConfig              `toml:"status"`
	Usage     UsageConfig               `toml:"usage"`
	Backend   BackendConfig             `toml:"backend"`
	Catalog   CatalogConfig             `toml:"catalog"`
	Telemetry TelemetryConfig           `toml:"telemetry"`
	Profiles  map[string]ProfileConfig  `toml:"profiles"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Addr string     `toml:"addr"`
	CORS CORSConfig `toml:"cors"`
}

// CORSConfig configures cross-origin request handling.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	AllowOrigins     []string `toml:"allow_origins"`
	AllowMethods     []string `toml:"allow_methods"`
	AllowCredentials bool     `toml:"allow_credentials"`
}

// RegistryConfig configures server discovery.
type RegistryConfig struct {
	// RefreshInterval is the discovery debounce window.
	RefreshInterval Duration `toml:"refresh_interval"`

	// Servers holds per-server metadata overrides, keyed by server name.
	Servers map[string]ServerOverride `toml:"servers"`
}

// ServerOverride adjusts discovered metadata for one server.
type ServerOverride struct {
	Category    string `toml:"category"`
	Description string `toml:"description"`
}

// StatusConfig configures the per-server status cache.
type StatusConfig struct {
	TTL Duration `toml:"ttl"`
}

// UsageConfig configures usage tracking.
type UsageConfig struct {
	IdleTimeout Duration `toml:"idle_timeout"`
}

// BackendConfig configures the control plane driver.
type BackendConfig struct {
	CommandTimeout Duration `toml:"command_timeout"`
}

// CatalogConfig configures the capability catalog.
type CatalogConfig struct {
	// Path points at a YAML capability catalog; empty uses the built-in defaults.
	Path string `toml:"path"`
}

// TelemetryConfig configures the event recorder.
type TelemetryConfig struct {
	HistoryLimit int `toml:"history_limit"`
}

// ProfileConfig declares a custom activation profile.
type ProfileConfig struct {
	Description     string   `toml:"description"`
	Servers         []string `toml:"servers"`
	Keywords        []string `toml:"keywords"`
	AutoActivate    bool     `toml:"auto_activate"`
	EstimatedTokens int      `toml:"estimated_tokens"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Addr: "0.0.0.0:8090",
		},
		Registry: RegistryConfig{
			RefreshInterval: Duration{5 * time.Minute},
		},
		Status: StatusConfig{
			TTL: Duration{30 * time.Second},
		},
		Usage: UsageConfig{
			IdleTimeout: Duration{10 * time.Minute},
		},
		Backend: BackendConfig{
			CommandTimeout: Duration{30 * time.Second},
		},
		Telemetry: TelemetryConfig{
			HistoryLimit: 1000,
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.API.Addr == "" {
		return fmt.Errorf("api.addr cannot be empty")
	}
	if c.Registry.RefreshInterval.Duration < 0 {
		return fmt.Errorf("registry.refresh_interval cannot be negative")
	}
	if c.Status.TTL.Duration < 0 {
		return fmt.Errorf("status.ttl cannot be negative")
	}
	if c.Telemetry.HistoryLimit < 0 {
		return fmt.Errorf("telemetry.history_limit cannot be negative")
	}
	for name, p := range c.Profiles {
		if len(p.Servers) == 0 {
			return fmt.Errorf("profile %q declares no servers", name)
		}
	}
	return nil
}

// Loader loads configuration from a backing source.
type Loader interface {
	Load(path string) (Config, error)
}

// DefaultLoader loads TOML configuration from disk.
type DefaultLoader struct{}

// Load reads the file at path, layering it over the defaults. A missing file
// at the default path is not an error; an explicitly given path must exist.
func (DefaultLoader) Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file '%s': %w", path, err)
	}
	return cfg, nil
}
