// Package config loads the engine's flat configuration schema (spec.md
// §6) via viper, and can scaffold a fresh config file for the "init"
// command.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"seedcurator/internal/seederr"
)

// Destinations maps a category to its destination directory. Only Default
// is required; the rest fall back to Default when unset.
type Destinations struct {
	Default string `mapstructure:"default" yaml:"default"`
	Movies  string `mapstructure:"movies" yaml:"movies,omitempty"`
	TVShows string `mapstructure:"tv-shows" yaml:"tv-shows,omitempty"`
	Music   string `mapstructure:"music" yaml:"music,omitempty"`
	AV      string `mapstructure:"av" yaml:"av,omitempty"`
}

// Config is the engine's flat configuration, as opposed to the teacher's
// nested per-client layout: this engine speaks to exactly one daemon.
type Config struct {
	SeedDir  string `mapstructure:"seed-dir" yaml:"seed-dir"`
	WatchDir string `mapstructure:"watch-dir" yaml:"watch-dir,omitempty"`

	RPCURL      string `mapstructure:"rpc-url" yaml:"rpc-url"`
	RPCPort     int    `mapstructure:"rpc-port" yaml:"rpc-port"`
	RPCPath     string `mapstructure:"rpc-path" yaml:"rpc-path"`
	RPCUsername string `mapstructure:"rpc-username" yaml:"rpc-username,omitempty"`
	RPCPassword string `mapstructure:"rpc-password" yaml:"rpc-password,omitempty"`

	QuotaGiB        int64 `mapstructure:"quota-gib" yaml:"quota-gib"`
	ReserveSpaceGiB int64 `mapstructure:"reserve-space-gib" yaml:"reserve-space-gib"`

	Destinations Destinations `mapstructure:"destinations" yaml:"destinations"`

	RegexFile          string `mapstructure:"regex-file" yaml:"regex-file"`
	CategorizerProgram string `mapstructure:"categorizer-program" yaml:"categorizer-program"`

	// DryRun, when true, tells the Cleaner to report obsolete paths without
	// deleting them. Threaded from here into Controller.Run on every tick.
	DryRun bool `mapstructure:"dry-run" yaml:"dry-run"`

	// LogFile is where the Logger prepends its records; not one of
	// spec.md's config keys but needed to locate the ambient log sink.
	LogFile string `mapstructure:"log-file" yaml:"log-file,omitempty"`
}

// Load reads and validates the config file at path using viper. A key that
// is set in the file or has a default can be overridden by an environment
// variable named SEEDCURATOR_ plus the upper-cased key; hyphens in the key
// are kept as they are (for example SEEDCURATOR_RPC-PORT).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("seedcurator")
	v.AutomaticEnv()

	v.SetDefault("rpc-url", "127.0.0.1")
	v.SetDefault("rpc-port", 9091)
	v.SetDefault("rpc-path", "/transmission/rpc")
	v.SetDefault("log-file", "seedcurator.log")

	if err := v.ReadInConfig(); err != nil {
		return nil, seederr.Setup(fmt.Errorf("read config %q: %w", path, err))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, seederr.Setup(fmt.Errorf("parse config %q: %w", path, err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, seederr.Setup(err)
	}
	return &cfg, nil
}

// Validate enforces the required fields and absolute-path constraints
// spec.md §6 lists.
func (c *Config) Validate() error {
	if c.SeedDir == "" {
		return fmt.Errorf("config: seed-dir is required")
	}
	if !filepath.IsAbs(c.SeedDir) {
		return fmt.Errorf("config: seed-dir must be an absolute path, got %q", c.SeedDir)
	}
	if c.WatchDir != "" && !filepath.IsAbs(c.WatchDir) {
		return fmt.Errorf("config: watch-dir must be an absolute path, got %q", c.WatchDir)
	}
	if c.Destinations.Default == "" {
		return fmt.Errorf("config: destinations.default is required")
	}
	if !filepath.IsAbs(c.Destinations.Default) {
		return fmt.Errorf("config: destinations.default must be an absolute path, got %q", c.Destinations.Default)
	}
	if c.QuotaGiB < 0 {
		return fmt.Errorf("config: quota-gib must be non-negative, got %d", c.QuotaGiB)
	}
	if c.ReserveSpaceGiB < 0 {
		return fmt.Errorf("config: reserve-space-gib must be non-negative, got %d", c.ReserveSpaceGiB)
	}
	if c.RegexFile == "" {
		return fmt.Errorf("config: regex-file is required")
	}
	if c.CategorizerProgram == "" {
		return fmt.Errorf("config: categorizer-program is required")
	}
	return nil
}

// DestinationFor returns the configured destination for cat, falling back
// to Destinations.Default when cat has no dedicated entry.
func (c *Config) DestinationFor(cat string) string {
	switch cat {
	case "film":
		if c.Destinations.Movies != "" {
			return c.Destinations.Movies
		}
	case "tv":
		if c.Destinations.TVShows != "" {
			return c.Destinations.TVShows
		}
	case "music":
		if c.Destinations.Music != "" {
			return c.Destinations.Music
		}
	case "av":
		if c.Destinations.AV != "" {
			return c.Destinations.AV
		}
	}
	return c.Destinations.Default
}

// QuotaBytes converts QuotaGiB to bytes.
func (c *Config) QuotaBytes() int64 {
	return c.QuotaGiB * 1 << 30
}

// ReserveSpaceBytes converts ReserveSpaceGiB to bytes: the minimum free
// space the QuotaEngine keeps available on the seed filesystem on top of
// whatever quota-gib alone would require.
func (c *Config) ReserveSpaceBytes() int64 {
	return c.ReserveSpaceGiB * 1 << 30
}

// Scaffold returns the YAML bytes for a fresh config file, used by the
// "init" command.
func Scaffold() ([]byte, error) {
	cfg := Config{
		SeedDir:  "/data/seed",
		WatchDir: "/data/watch",

		RPCURL:  "127.0.0.1",
		RPCPort: 9091,
		RPCPath: "/transmission/rpc",

		QuotaGiB:        0,
		ReserveSpaceGiB: 0,
		DryRun:          false,

		Destinations: Destinations{
			Default: "/data/media/default",
			Movies:  "/data/media/movies",
			TVShows: "/data/media/tv-shows",
			Music:   "/data/media/music",
			AV:      "/data/media/av",
		},
		RegexFile:          "/etc/seedcurator/av.regex",
		CategorizerProgram: "/usr/local/bin/seedcurator-categorize",
		LogFile:            "/var/log/seedcurator.log",
	}
	return yaml.Marshal(cfg)
}
