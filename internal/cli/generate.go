package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/source"
	"github.com/matzehuels/flashlight/pkg/source/mongosource"
	"github.com/matzehuels/flashlight/pkg/source/sqlitesource"
)

// generateCommand creates the generate command for synthetic catalogues.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output string
		kind   string
		drop   bool
	)
	opts := source.GenerateOptions{Count: 500, Seed: 1, VideoShare: 0.15, FrameShare: 0.05, Jitter: 0.1}

	cmd := &cobra.Command{
		Use:   "generate -o <items.jsonl|items.db|mongodb://...>",
		Short: "Generate a synthetic media catalogue",
		Long: `Generate a synthetic media catalogue.

Items get common media aspect ratios with optional jitter and a mix of
image, video and frame kinds. The same seed always produces the same
catalogue, ids included.

The output kind follows the target: .jsonl files, SQLite databases
(.db, .sqlite) or a MongoDB URI. SQLite and MongoDB targets are appended to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--output is required")
			}
			if kind == "" {
				kind = guessKind(output)
			}
			return c.runGenerate(cmd.Context(), opts, kind, output, drop)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or MongoDB URI")
	cmd.Flags().StringVar(&kind, "kind", "", "output kind: jsonl, sqlite, mongo (default: by output)")
	cmd.Flags().BoolVar(&drop, "drop", false, "drop the MongoDB collection first")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", opts.Count, "number of items")
	cmd.Flags().Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	cmd.Flags().Float64Var(&opts.VideoShare, "video-share", opts.VideoShare, "fraction of video items")
	cmd.Flags().Float64Var(&opts.FrameShare, "frame-share", opts.FrameShare, "fraction of frame items")
	cmd.Flags().Float64Var(&opts.Jitter, "jitter", opts.Jitter, "relative aspect ratio jitter")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, opts source.GenerateOptions, kind, output string, drop bool) error {
	items, err := source.Generate(opts)
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)

	switch kind {
	case SourceJSONL:
		if err := source.ExportJSONL(output, items); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	case SourceSQLite:
		db, err := sqlitesource.Open(ctx, output)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := db.Seed(ctx, items); err != nil {
			return fmt.Errorf("seed %s: %w", output, err)
		}
	case SourceMongo:
		cfg, err := c.config()
		if err != nil {
			return err
		}
		mc := cfg.Source.Mongo
		mc.URI = output
		db, err := mongosource.Connect(ctx, mc)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
		if drop {
			if err := db.Drop(ctx); err != nil {
				return fmt.Errorf("drop collection: %w", err)
			}
		}
		if _, err := db.Seed(ctx, items); err != nil {
			return fmt.Errorf("seed %s: %w", db.Name(), err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cannot generate into %q", kind)
	}

	prog.done(fmt.Sprintf("Generated %d items", len(items)))
	printSuccess("Catalogue written")
	if kind != SourceMongo {
		printFile(output)
	}
	fmt.Fprintln(statusOut, kindTable(countKinds(items)))
	printNextStep("Lay out", appName+" layout "+output)
	return nil
}

func countKinds(items []tile.Item) map[tile.Kind]int {
	counts := make(map[tile.Kind]int, len(tile.Kinds))
	for _, it := range items {
		counts[it.Normalize().Kind]++
	}
	return counts
}
