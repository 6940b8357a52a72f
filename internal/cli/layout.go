package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid"
	"github.com/matzehuels/flashlight/pkg/grid/frame"
	"github.com/matzehuels/flashlight/pkg/grid/headless"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/source"
)

// gridFlags are the engine flags shared by layout and browse.
type gridFlags struct {
	threshold float64
	margin    float64
	rows      int
	pageSize  int
}

func (f *gridFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "row aspect ratio threshold (default: from config, 5)")
	cmd.Flags().Float64Var(&f.margin, "margin", -1, "gap between items in pixels (default: from config, 3)")
	cmd.Flags().IntVar(&f.rows, "rows-per-section", 0, "rows per virtualized section (default: from config, 20)")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "items per fetched page (default: from config, 50)")
}

func (f *gridFlags) apply(cfg *Config) {
	if f.threshold != 0 {
		cfg.Grid.RowAspectRatioThreshold = f.threshold
	}
	if f.margin >= 0 {
		cfg.Grid.Margin = f.margin
	}
	if f.rows != 0 {
		cfg.Grid.RowsPerSection = f.rows
	}
	if f.pageSize != 0 {
		cfg.Grid.PageSize = f.pageSize
	}
}

// resolveConfig loads the config file and applies command flags.
func (c *CLI) resolveConfig(sf *sourceFlags, gf *gridFlags, location string) (Config, error) {
	cfg, err := c.config()
	if err != nil {
		return Config{}, err
	}
	sf.apply(&cfg, location)
	gf.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// layoutCommand creates the layout command, a headless run of the engine.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output        string
		width, height float64
		sf            sourceFlags
		gf            gridFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [items.jsonl|items.db|URL]",
		Short: "Lay out a catalogue headlessly and write the result as JSON",
		Long: `Lay out a catalogue headlessly and write the result as JSON.

The layout command drives the grid engine against an in-memory surface of
the given size, scrolling until every page has been fetched, and writes the
committed sections with every item's placement.

Without an argument the source comes from the [source] section of the
config file. Pages are cached according to the [cache] section.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var location string
			if len(args) == 1 {
				location = args[0]
			}
			cfg, err := c.resolveConfig(&sf, &gf, location)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), cfg, sf.refresh, width, height, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64Var(&width, "width", defaultWidth, "surface width in pixels")
	cmd.Flags().Float64Var(&height, "height", defaultHeight, "surface height in pixels")
	sf.register(cmd)
	gf.register(cmd)

	return cmd
}

// runLayout lays out the whole source and writes the snapshot.
func (c *CLI) runLayout(ctx context.Context, cfg Config, refresh bool, width, height float64, output string) error {
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "surface size must be positive, got %vx%v", width, height)
	}
	src, closeSrc, err := c.openSource(ctx, cfg, refresh)
	if err != nil {
		return err
	}
	defer closeSrc()

	spinner := newSpinner(ctx, "Laying out "+src.Name())
	spinner.Start()
	prog := newProgress(c.Logger)

	snap, err := c.layoutAll(ctx, src, cfg.Grid, width, height, func(s grid.Snapshot) {
		spinner.SetMessage("Laying out %s: %d items", src.Name(), s.ItemCount)
	})
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Laid out %d items", snap.ItemCount))

	if err := writeSnapshot(c.out, output, snap); err != nil {
		return err
	}
	if output != "" {
		printSuccess("Layout complete")
		printFile(output)
		printStats(
			fmt.Sprintf("%d items", snap.ItemCount),
			fmt.Sprintf("%d sections", len(snap.Sections)),
			fmt.Sprintf("%.0fpx tall", snap.Height),
		)
		fmt.Fprintln(statusOut, kindTable(snapshotKinds(snap)))
		printNextStep("Browse", appName+" browse")
	}
	return nil
}

// layoutRetries bounds how often layoutAll retries a transient fetch failure.
const layoutRetries = 3

// layoutAll attaches an engine to a headless surface and scrolls to the end
// until the source is exhausted. progress, if set, sees every step.
func (c *CLI) layoutAll(ctx context.Context, src source.Source, gc GridConfig, width, height float64, progress func(grid.Snapshot)) (grid.Snapshot, error) {
	q := frame.NewQueue()
	surf := headless.NewSurface(width, height)
	opts := gc.Options
	eng, err := grid.New(grid.Config[string]{
		Fetcher:        source.Fetcher(src, gc.PageSize),
		Renderer:       headless.NewRecorder(),
		Scheduler:      q,
		Options:        &opts,
		RowsPerSection: gc.RowsPerSection,
		Logger:         c.Logger,
	})
	if err != nil {
		return grid.Snapshot{}, err
	}
	if err := eng.Attach(surf); err != nil {
		return grid.Snapshot{}, err
	}
	defer eng.Detach()

	stalled, retries := 0, 0
	for {
		q.Flush()
		switch eng.Status() {
		case grid.StatusExhausted:
			q.Flush()
			return eng.Snapshot(), nil
		case grid.StatusFailed:
			if !errors.Transient(eng.Err()) || retries >= layoutRetries {
				return grid.Snapshot{}, eng.Err()
			}
			retries++
			c.Logger.Warn("retrying page", "attempt", retries, "err", eng.Err())
			eng.Retry()
			continue
		case grid.StatusLoading:
			if err := q.Wait(ctx); err != nil {
				return grid.Snapshot{}, err
			}
			stalled = 0
			continue
		}

		if progress != nil {
			progress(eng.Snapshot())
		}
		before := surf.ContentHeight()
		surf.ScrollTo(before)
		q.Flush()
		if eng.Status() == grid.StatusIdle && surf.ContentHeight() == before {
			if stalled++; stalled > 2 {
				return grid.Snapshot{}, errors.New(errors.ErrCodeInternal, "layout stalled at %.0fpx", before)
			}
		}
	}
}

// writeSnapshot writes snap as indented JSON to path, or to w when path is empty.
func writeSnapshot(w io.Writer, path string, snap grid.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// snapshotKinds counts placed items per kind.
func snapshotKinds(snap grid.Snapshot) map[tile.Kind]int {
	counts := make(map[tile.Kind]int, len(tile.Kinds))
	for _, s := range snap.Sections {
		for _, p := range s.Placements {
			counts[p.Item.Kind]++
		}
	}
	return counts
}
