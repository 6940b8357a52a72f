package grid

import (
	"context"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/frame"
	"github.com/matzehuels/flashlight/pkg/grid/render"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/grid/viewport"
)

// DefaultRowsPerSection is the number of rows grouped into one section.
const DefaultRowsPerSection = 20

// Option defaults.
const (
	DefaultRowAspectRatioThreshold = 5
	DefaultMargin                  = 3
)

// =============================================================================
// Fetch contract
// =============================================================================

// Page is one batch of items. A nil Next means there are no more pages.
type Page[K any] struct {
	Items []tile.Item `json:"items"`
	Next  *K          `json:"next"`
}

// Fetcher loads the page identified by key.
type Fetcher[K any] interface {
	Fetch(ctx context.Context, key K) (Page[K], error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc[K any] func(ctx context.Context, key K) (Page[K], error)

// Fetch calls f.
func (f FetcherFunc[K]) Fetch(ctx context.Context, key K) (Page[K], error) {
	return f(ctx, key)
}

// =============================================================================
// Host contract
// =============================================================================

// Surface is the scrollable region the engine lays out into.
type Surface interface {
	// Size returns the usable content width and the visible height.
	Size() (width, height float64)

	// SetContentHeight sets the total scrollable height.
	SetContentHeight(h float64)

	// ScrollTop returns the current scroll offset.
	ScrollTop() float64

	// ScrollTo moves the viewport.
	ScrollTo(top float64)

	// NewObserver returns an observer reporting crossings to notify.
	NewObserver(notify viewport.Notify) viewport.Observer
}

// =============================================================================
// Options
// =============================================================================

// Options control packing and spacing.
type Options struct {
	// RowAspectRatioThreshold is the aspect sum at which a row closes.
	RowAspectRatioThreshold float64 `json:"row_aspect_ratio_threshold" toml:"row_aspect_ratio_threshold"`

	// Margin is the gap between items and below each row.
	Margin float64 `json:"margin" toml:"margin"`
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		RowAspectRatioThreshold: DefaultRowAspectRatioThreshold,
		Margin:                  DefaultMargin,
	}
}

// Validate checks that o can lay out rows.
func (o Options) Validate() error {
	if err := tile.ValidateThreshold(o.RowAspectRatioThreshold); err != nil {
		return err
	}
	if o.Margin < 0 || math.IsNaN(o.Margin) || math.IsInf(o.Margin, 0) {
		return errors.New(errors.ErrCodeInvalidOptions, "margin must be a non-negative number, got %v", o.Margin)
	}
	return nil
}

// OptionsPatch is a partial update to [Options]. Nil fields are unchanged.
type OptionsPatch struct {
	RowAspectRatioThreshold *float64
	Margin                  *float64
}

// Apply returns o with the non-nil fields of p.
func (p OptionsPatch) Apply(o Options) Options {
	if p.RowAspectRatioThreshold != nil {
		o.RowAspectRatioThreshold = *p.RowAspectRatioThreshold
	}
	if p.Margin != nil {
		o.Margin = *p.Margin
	}
	return o
}

// =============================================================================
// Config
// =============================================================================

// Config configures an [Engine].
type Config[K any] struct {
	// Fetcher loads pages. Required.
	Fetcher Fetcher[K]

	// InitialKey identifies the first page.
	InitialKey K

	// Renderer mounts item visuals. Required.
	Renderer render.Renderer

	// Scheduler runs engine tasks. Required.
	Scheduler frame.Scheduler

	// Options are the initial options. Nil means [DefaultOptions].
	Options *Options

	// RowsPerSection defaults to [DefaultRowsPerSection].
	RowsPerSection int

	// Logger defaults to log.Default().
	Logger *log.Logger

	// OnError is called on the scheduler goroutine when a fetch fails.
	OnError func(error)
}

// ValidateAndSetDefaults validates c and fills in defaults.
func (c *Config[K]) ValidateAndSetDefaults() error {
	if c.Fetcher == nil {
		return errors.New(errors.ErrCodeInvalidInput, "grid: fetcher is required")
	}
	if c.Renderer == nil {
		return errors.New(errors.ErrCodeInvalidInput, "grid: renderer is required")
	}
	if c.Scheduler == nil {
		return errors.New(errors.ErrCodeInvalidInput, "grid: scheduler is required")
	}
	if c.Options == nil {
		opts := DefaultOptions()
		c.Options = &opts
	}
	if err := c.Options.Validate(); err != nil {
		return err
	}
	if c.RowsPerSection < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "rows per section must be positive, got %d", c.RowsPerSection)
	}
	if c.RowsPerSection == 0 {
		c.RowsPerSection = DefaultRowsPerSection
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return nil
}
