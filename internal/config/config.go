// Package config is the socmint configuration file and its defaults.
package config

import (
	"fmt"
	"time"

	"socmint/internal/components/telemetry"
	"socmint/internal/transport"
	"socmint/lib/configutil"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment override, ex. SOCMINT_SESSION_TOKEN.
const EnvPrefix = "SOCMINT_"

type CacheConfig struct {
	Dir        string `json:"dir" env:"DIR"`
	TTLSeconds int    `json:"ttl_seconds" env:"TTL_SECONDS"`
}

type TransportConfig struct {
	TimeoutSeconds     float64 `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	InsecureSkipVerify bool    `json:"insecure_skip_verify" env:"INSECURE_SKIP_VERIFY"`
	Proxy              string  `json:"proxy" env:"PROXY"`
	RequestsPerSecond  float64 `json:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	// DumpDir writes every http exchange to a file under it, for debugging.
	DumpDir            string  `json:"dump_dir" env:"DUMP_DIR"`
}

type FanoutConfig struct {
	MaxWorkers int  `json:"max_workers" env:"MAX_WORKERS"`
	Sequential bool `json:"sequential" env:"SEQUENTIAL"`
}

type LookupConfig struct {
	// ListLimit caps every relation list, negative means no cap.
	ListLimit   int `json:"list_limit" env:"LIST_LIMIT"`
	PageDelayMs int `json:"page_delay_ms" env:"PAGE_DELAY_MS"`
}

type SessionConfig struct {
	Token string `json:"token" env:"TOKEN"`
}

type Config struct {
	Cache     CacheConfig      `json:"cache" envPrefix:"CACHE_"`
	Transport TransportConfig  `json:"transport" envPrefix:"TRANSPORT_"`
	Fanout    FanoutConfig     `json:"fanout" envPrefix:"FANOUT_"`
	Lookup    LookupConfig     `json:"lookup" envPrefix:"LOOKUP_"`
	Session   SessionConfig    `json:"session" envPrefix:"SESSION_"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func Default() Config {
	return Config{
		Cache: CacheConfig{
			Dir:        "_CACHE_ROBLOX_OS_",
			TTLSeconds: 6 * 60 * 60,
		},
		Transport: TransportConfig{
			TimeoutSeconds: 10,
		},
		Fanout: FanoutConfig{
			MaxWorkers: 8,
		},
		Lookup: LookupConfig{
			ListLimit:   100,
			PageDelayMs: 200,
		},
	}
}

// Load reads the config at path (and its .local override) on top of the
// defaults, then applies SOCMINT_* environment overrides. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadOrDefault(path, Default())
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	err = env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix})
	if err != nil {
		return Config{}, fmt.Errorf("read env overrides: %w", err)
	}
	return cfg, nil
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c Config) PageDelay() time.Duration {
	if c.Lookup.PageDelayMs < 0 {
		return -1
	}
	return time.Duration(c.Lookup.PageDelayMs) * time.Millisecond
}

func (c Config) TransportOptions() transport.Config {
	return transport.Config{
		Timeout:            time.Duration(c.Transport.TimeoutSeconds * float64(time.Second)),
		InsecureSkipVerify: c.Transport.InsecureSkipVerify,
		Proxy:              c.Transport.Proxy,
		RequestsPerSecond:  c.Transport.RequestsPerSecond,
		DumpDir:            c.Transport.DumpDir,
	}
}
