package grid

import (
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/observability"
)

// Resize reports a new content width. The first report after
// [Engine.Attach] is ignored when it matches the attach-time measurement.
// Reports are coalesced into one reflow per frame.
func (e *Engine[K]) Resize(width float64) {
	if e.surface == nil {
		return
	}
	if e.skipResize {
		e.skipResize = false
		if width == e.st.width {
			return
		}
	}
	e.pendingWidth = width
	if e.resizeQueued {
		return
	}
	e.resizeQueued = true
	life := e.life
	e.sched.Frame(func() {
		if life != e.life || !e.resizeQueued {
			return
		}
		e.resizeQueued = false
		e.reflow(e.pendingWidth)
	})
}

// reflow recomputes geometry for width without changing row membership and
// keeps the viewport at the same relative offset inside the active section.
func (e *Engine[K]) reflow(width float64) {
	st := &e.st
	if width == st.width {
		return
	}

	var (
		anchored bool
		fraction float64
	)
	if st.active < len(st.sections) {
		top, h := st.sections[st.active].Bounds()
		if h > 0 {
			fraction = (e.surface.ScrollTop() - top) / h
			anchored = true
		}
	}

	st.width = width
	_, st.containerHeight = e.surface.Size()
	m := st.metrics()

	var y float64
	for _, s := range st.sections {
		s.Set(y, m)
		y += s.Height()
		if err := s.Reposition(e.renderer); err != nil {
			e.logger.Warn("render failed", "section", s.Index(), "err", err)
		}
	}
	st.height = y
	e.surface.SetContentHeight(y)

	if anchored {
		top, h := st.sections[st.active].Bounds()
		e.surface.ScrollTo(top + fraction*h)
	}

	observability.Grid().OnReflow(e.ctx, width, len(st.sections))
	e.logger.Debug("reflowed", "width", width, "sections", len(st.sections), "height", y)
	e.fill(len(st.sections))
}

// UpdateOptions validates patch and, when it changes any option, re-tiles
// every loaded item in the next frame.
func (e *Engine[K]) UpdateOptions(patch OptionsPatch) error {
	base := e.st.opts
	if e.pendingOpts != nil {
		base = *e.pendingOpts
	}
	next := patch.Apply(base)
	if err := next.Validate(); err != nil {
		return err
	}
	if next == base {
		return nil
	}
	if e.surface == nil {
		e.st.opts = next
		return nil
	}

	queued := e.pendingOpts != nil
	e.pendingOpts = &next
	if queued {
		return nil
	}
	life := e.life
	e.sched.Frame(func() {
		if life != e.life || e.pendingOpts == nil {
			return
		}
		opts := *e.pendingOpts
		e.pendingOpts = nil
		if opts != e.st.opts {
			e.retile(opts)
		}
	})
	return nil
}

// retile re-packs every loaded item with opts and commits fresh sections.
// The layout is left untouched when packing fails.
func (e *Engine[K]) retile(opts Options) {
	st := &e.st
	items := st.items()
	hasMore := st.key != nil
	res, err := tile.Pack(items, opts.RowAspectRatioThreshold, hasMore)
	if err != nil {
		e.logger.Error("re-tile failed", "err", err)
		return
	}

	e.unmountAll()
	e.newObserver()

	st.opts = opts
	st.sections = nil
	st.itemRem = res.Remainder
	st.rowRem = nil
	st.height = 0
	st.active = 0
	st.clean = make(map[int]bool)
	committed := e.commit(res.Rows, hasMore)

	observability.Grid().OnRetile(e.ctx, len(items))
	e.logger.Debug("re-tiled", "items", len(items), "sections", committed)
	e.fill(committed)
}
