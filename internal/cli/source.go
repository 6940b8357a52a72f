package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flashlight/pkg/cache"
	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/source"
	"github.com/matzehuels/flashlight/pkg/source/cached"
	"github.com/matzehuels/flashlight/pkg/source/memory"
	"github.com/matzehuels/flashlight/pkg/source/mongosource"
	"github.com/matzehuels/flashlight/pkg/source/remote"
	"github.com/matzehuels/flashlight/pkg/source/sqlitesource"
)

// sourceFlags are the flags shared by commands that read items.
type sourceFlags struct {
	kind    string
	noCache bool
	refresh bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "source", "", "source kind: jsonl, sqlite, mongo, remote (default: from config, or by file extension)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the page cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached pages but store fresh ones")
}

// apply merges the flags and an optional positional location into cfg.
func (f *sourceFlags) apply(cfg *Config, location string) {
	if f.kind != "" {
		cfg.Source.Kind = f.kind
	} else if location != "" {
		cfg.Source.Kind = guessKind(location)
	}
	if location != "" {
		switch cfg.Source.Kind {
		case SourceRemote:
			cfg.Source.URL = location
		case SourceMongo:
			cfg.Source.Mongo.URI = location
		default:
			cfg.Source.Path = location
		}
	}
	if f.noCache {
		cfg.Cache.Backend = CacheNone
	}
}

// guessKind picks a source kind from a location.
func guessKind(location string) string {
	switch {
	case hasScheme(location, "http"), hasScheme(location, "https"):
		return SourceRemote
	case hasScheme(location, "mongodb"), hasScheme(location, "mongodb+srv"):
		return SourceMongo
	}
	switch filepath.Ext(location) {
	case ".db", ".sqlite", ".sqlite3":
		return SourceSQLite
	}
	return SourceJSONL
}

// fileIdentity names a file by absolute path and modification time, so
// cached pages go stale when the file is rewritten.
func fileIdentity(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(path)
	if err != nil {
		return abs
	}
	return fmt.Sprintf("%s@%d", abs, info.ModTime().UnixNano())
}

func hasScheme(s, scheme string) bool {
	p := scheme + "://"
	return len(s) >= len(p) && s[:len(p)] == p
}

// openSource builds the configured source behind the configured cache. The
// returned close function releases both.
func (c *CLI) openSource(ctx context.Context, cfg Config, refresh bool) (source.Source, func(), error) {
	src, closeSrc, err := openRaw(ctx, cfg.Source)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Cache.Backend == CacheNone {
		return src, closeSrc, nil
	}

	pc, err := c.openCache(ctx, cfg.Cache)
	if err != nil {
		closeSrc()
		return nil, nil, err
	}
	wrapped := cached.New(src, pc, cached.Options{
		Keyer:   cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName),
		TTL:     cfg.Cache.TTL.Duration,
		Logger:  c.Logger,
		Refresh: refresh,
	})
	return wrapped, func() {
		_ = pc.Close()
		closeSrc()
	}, nil
}

func openRaw(ctx context.Context, cfg SourceConfig) (source.Source, func(), error) {
	noop := func() {}
	switch cfg.Kind {
	case SourceJSONL:
		if cfg.Path == "" {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "jsonl source needs a path")
		}
		items, err := source.ImportJSONL(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", cfg.Path, err)
		}
		return memory.New(fileIdentity(cfg.Path), items), noop, nil

	case SourceSQLite:
		if cfg.Path == "" {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "sqlite source needs a path")
		}
		s, err := sqlitesource.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case SourceMongo:
		s, err := mongosource.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close(context.Background()) }, nil

	case SourceRemote:
		s, err := remote.New(cfg.URL, remote.Options{})
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	}
	return nil, nil, errors.New(errors.ErrCodeInvalidInput, "unknown source kind %q", cfg.Kind)
}

// openCache opens the configured page cache backend.
func (c *CLI) openCache(ctx context.Context, cfg CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case CacheFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				c.Logger.Warn("no cache directory, caching disabled", "err", err)
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Redis)
	case CacheMemory:
		return cache.NewMemoryCache(), nil
	}
	return cache.NewNullCache(), nil
}
