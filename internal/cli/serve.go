package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flashlight/internal/server"
)

// serveCommand creates the serve command that publishes a source over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr string
		sf   sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "serve [items.jsonl|items.db|mongodb://...]",
		Short: "Serve a catalogue over HTTP",
		Long: `Serve a catalogue over HTTP.

Pages are served at GET /v1/items?key=<cursor>&limit=<n> in the format the
remote source reads, so one flashlight can browse another's catalogue:

  flashlight serve items.db
  flashlight browse http://127.0.0.1:8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var location string
			if len(args) == 1 {
				location = args[0]
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			sf.apply(&cfg, location)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg, sf.refresh)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: from config, "+server.DefaultAddr+")")
	sf.register(cmd)
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg Config, refresh bool) error {
	src, closeSrc, err := c.openSource(ctx, cfg, refresh)
	if err != nil {
		return err
	}
	defer closeSrc()

	srv := server.New(src, server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		Logger:       c.Logger,
	})
	return srv.ListenAndServe(ctx)
}
