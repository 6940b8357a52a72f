package grid

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/frame"
	"github.com/matzehuels/flashlight/pkg/grid/render"
	"github.com/matzehuels/flashlight/pkg/grid/section"
	"github.com/matzehuels/flashlight/pkg/grid/viewport"
)

// Engine lays out a paginated item sequence into a virtualized grid.
type Engine[K any] struct {
	fetcher  Fetcher[K]
	initial  K
	renderer render.Renderer
	sched    frame.Scheduler
	rows     int
	logger   *log.Logger
	onError  func(error)

	st state[K]

	surface  Surface
	observer viewport.Observer
	gen      uint64 // observer generation
	life     uint64 // attach generation

	ctx    context.Context
	cancel context.CancelFunc

	skipResize   bool
	resizeQueued bool
	pendingWidth float64
	pendingOpts  *Options
}

// New returns a detached engine.
func New[K any](cfg Config[K]) (*Engine[K], error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Engine[K]{
		fetcher:  cfg.Fetcher,
		initial:  cfg.InitialKey,
		renderer: cfg.Renderer,
		sched:    cfg.Scheduler,
		rows:     cfg.RowsPerSection,
		logger:   cfg.Logger,
		onError:  cfg.OnError,
		st:       newState(cfg.InitialKey, *cfg.Options, 0),
	}, nil
}

// Attach measures s and starts loading from the initial key.
func (e *Engine[K]) Attach(s Surface) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidInput, "grid: nil surface")
	}
	if e.surface != nil {
		return errors.New(errors.ErrCodeAlreadyAttached, "grid: engine is already attached")
	}
	e.surface = s
	e.skipResize = true
	e.start(e.st.epoch + 1)
	e.logger.Debug("engine attached", "width", e.st.width, "height", e.st.containerHeight)
	e.get()
	return nil
}

// Detach unmounts every visual and stops observing. Pages in flight are
// discarded. The engine can be attached again.
func (e *Engine[K]) Detach() error {
	if e.surface == nil {
		return errors.New(errors.ErrCodeNotAttached, "grid: engine is not attached")
	}
	e.teardown()
	e.surface = nil
	e.observer = nil
	e.logger.Debug("engine detached")
	return nil
}

// IsAttached reports whether the engine has a surface.
func (e *Engine[K]) IsAttached() bool { return e.surface != nil }

// Reset discards the layout and reloads from the initial key.
func (e *Engine[K]) Reset() error {
	if e.surface == nil {
		return errors.New(errors.ErrCodeNotAttached, "grid: engine is not attached")
	}
	e.teardown()
	e.start(e.st.epoch)
	e.surface.SetContentHeight(0)
	e.surface.ScrollTo(0)
	e.logger.Debug("engine reset", "epoch", e.st.epoch)
	e.get()
	return nil
}

// Status reports the fetch driver's state.
func (e *Engine[K]) Status() Status { return e.st.status() }

// Err returns the error of the last failed fetch, or nil.
func (e *Engine[K]) Err() error { return e.st.err }

// Options returns the options in effect.
func (e *Engine[K]) Options() Options { return e.st.opts }

// Sections returns the committed sections in index order.
func (e *Engine[K]) Sections() []*section.Section {
	return append([]*section.Section(nil), e.st.sections...)
}

// Height returns the total content height.
func (e *Engine[K]) Height() float64 { return e.st.height }

// start builds a fresh state for epoch from the surface's measurements.
// Options and the item updater carry over; clean marks do not.
func (e *Engine[K]) start(epoch uint64) {
	updater := e.st.updater
	e.st = newState(e.initial, e.st.opts, epoch)
	e.st.updater = updater
	e.st.width, e.st.containerHeight = e.surface.Size()
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.newObserver()
}

// teardown cancels the epoch and releases everything it mounted. Results
// of fetches issued before the call are dropped. A queued option change
// takes effect immediately.
func (e *Engine[K]) teardown() {
	if e.cancel != nil {
		e.cancel()
	}
	e.unmountAll()
	e.gen++
	e.life++
	e.st.epoch++
	e.resizeQueued = false
	if e.pendingOpts != nil {
		e.st.opts = *e.pendingOpts
		e.pendingOpts = nil
	}
}

func (e *Engine[K]) unmountAll() {
	for _, s := range e.st.sections {
		s.Hide(e.renderer)
	}
	if e.observer != nil {
		e.observer.Disconnect()
	}
}

// newObserver replaces the observer. Crossings from earlier observers are
// dropped.
func (e *Engine[K]) newObserver() {
	e.gen++
	gen := e.gen
	e.observer = e.surface.NewObserver(func(batch []viewport.Crossing) {
		e.sched.Post(func() {
			if gen != e.gen {
				return
			}
			e.onCrossings(batch)
		})
	})
}
