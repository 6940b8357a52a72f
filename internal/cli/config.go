package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flashlight/pkg/cache"
	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid"
	"github.com/matzehuels/flashlight/pkg/source"
	"github.com/matzehuels/flashlight/pkg/source/cached"
	"github.com/matzehuels/flashlight/pkg/source/mongosource"
)

// =============================================================================
// Config File
// =============================================================================

// Config is the contents of config.toml. Flags override file values.
type Config struct {
	Grid   GridConfig   `toml:"grid"`
	Source SourceConfig `toml:"source"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// GridConfig holds engine options.
type GridConfig struct {
	grid.Options
	RowsPerSection int `toml:"rows_per_section"`
	PageSize       int `toml:"page_size"`
}

// Source kinds.
const (
	SourceJSONL  = "jsonl"
	SourceSQLite = "sqlite"
	SourceMongo  = "mongo"
	SourceRemote = "remote"
)

// SourceConfig selects where items come from.
type SourceConfig struct {
	Kind  string             `toml:"kind"`
	Path  string             `toml:"path"`
	URL   string             `toml:"url"`
	Mongo mongosource.Config `toml:"mongo"`
}

// Cache backends.
const (
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// CacheConfig configures the page cache in front of the source.
type CacheConfig struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	TTL     duration          `toml:"ttl"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// ServerConfig configures `flashlight serve`.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// duration decodes TOML strings such as "90s" or "1h".
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Grid: GridConfig{
			Options:        grid.DefaultOptions(),
			RowsPerSection: grid.DefaultRowsPerSection,
			PageSize:       source.DefaultLimit,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     duration{cached.DefaultTTL},
		},
	}
}

// SetDefaults fills zero values after decoding.
func (c *Config) SetDefaults() {
	d := defaultConfig()
	if c.Grid.RowAspectRatioThreshold == 0 {
		c.Grid.RowAspectRatioThreshold = d.Grid.RowAspectRatioThreshold
	}
	if c.Grid.RowsPerSection == 0 {
		c.Grid.RowsPerSection = d.Grid.RowsPerSection
	}
	if c.Grid.PageSize == 0 {
		c.Grid.PageSize = d.Grid.PageSize
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceJSONL
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL = d.Cache.TTL
	}
	c.Source.Mongo.SetDefaults()
}

// Validate checks option ranges and enum values.
func (c Config) Validate() error {
	if err := c.Grid.Options.Validate(); err != nil {
		return err
	}
	if c.Grid.RowsPerSection < 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "rows_per_section must be positive, got %d", c.Grid.RowsPerSection)
	}
	if _, err := source.ValidateLimit(c.Grid.PageSize); err != nil {
		return err
	}
	switch c.Source.Kind {
	case SourceJSONL, SourceSQLite, SourceMongo, SourceRemote:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown source kind %q", c.Source.Kind)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheMemory, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache ttl must not be negative")
	}
	return nil
}

// loadConfig reads path, or the default location when path is empty. A
// missing default file yields the defaults; a missing explicit file is an
// error.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			cfg := defaultConfig()
			cfg.SetDefaults()
			return cfg, nil
		}
		path = p
	}

	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidInput, "%s: unknown key %q", path, undecoded[0].String())
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// config loads the configuration for c.
func (c *CLI) config() (Config, error) {
	return loadConfig(c.ConfigPath)
}

// =============================================================================
// config command
// =============================================================================

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return toml.NewEncoder(c.out).Encode(cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, p)
			return nil
		},
	})
	return cmd
}
