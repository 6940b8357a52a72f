// Package cli implements the flashlight command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flashlight/pkg/buildinfo"
)

const (
	appName = "flashlight"

	// Headless surface size in pixels.
	defaultWidth  = 1280
	defaultHeight = 800
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string

	out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level. Debug also installs log-backed
// observability hooks.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		installHooks(c.Logger)
	}
}

// SetOutput redirects command output, for tests.
func (c *CLI) SetOutput(w io.Writer) { c.out = w }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Flashlight lays out media catalogues as justified grids",
		Long:         `Flashlight packs paginated media catalogues into justified rows, virtualizes them into sections, and renders only what is on screen.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/flashlight/config.toml)")

	root.AddCommand(
		c.generateCommand(),
		c.layoutCommand(),
		c.browseCommand(),
		c.serveCommand(),
		c.cacheCommand(),
		c.configCommand(),
		c.completionCommand(),
	)

	return root
}

// cacheDir returns $XDG_CACHE_HOME/flashlight, or ~/.cache/flashlight.
func cacheDir() (string, error) {
	return xdgPath("XDG_CACHE_HOME", ".cache")
}

// configPath returns $XDG_CONFIG_HOME/flashlight/config.toml, or the same
// under ~/.config.
func configPath() (string, error) {
	return xdgPath("XDG_CONFIG_HOME", ".config", "config.toml")
}

func xdgPath(env, fallback string, elem ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(append([]string{base, appName}, elem...)...), nil
}
