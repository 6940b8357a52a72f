package grid

import (
	"github.com/matzehuels/flashlight/pkg/grid/section"
	"github.com/matzehuels/flashlight/pkg/grid/viewport"
	"github.com/matzehuels/flashlight/pkg/observability"
)

func (e *Engine[K]) onCrossings(batch []viewport.Crossing) {
	st := &e.st
	for _, c := range batch {
		idx := c.Target.Index()
		if idx < 0 || idx >= len(st.sections) || st.sections[idx] != c.Target {
			continue
		}
		s := st.sections[idx]

		if c.Intersecting {
			if st.key != nil && idx >= len(st.sections)-2 {
				e.get()
			}
			e.show(s)
			st.active = idx
			continue
		}
		if s.Shown() {
			s.Hide(e.renderer)
			observability.Grid().OnVisibility(e.ctx, idx, false)
		}
	}
}

// show mounts s. A section shown for the first time since the last
// [Engine.UpdateItems] passes its item ids to the updater first.
func (e *Engine[K]) show(s *section.Section) {
	if s.Shown() {
		return
	}
	st := &e.st
	if !st.clean[s.Index()] {
		if st.updater != nil {
			for _, it := range s.Items() {
				st.updater(it.ID)
			}
		}
		st.clean[s.Index()] = true
	}
	if err := s.Show(e.renderer); err != nil {
		e.logger.Warn("render failed", "section", s.Index(), "err", err)
	}
	observability.Grid().OnVisibility(e.ctx, s.Index(), true)
}

// UpdateItems registers updater and, in the next frame, calls it for every
// item of the shown sections. Other sections call it when next shown. The
// updater stays registered across Reset, Detach and Attach.
func (e *Engine[K]) UpdateItems(updater func(id string)) {
	e.st.updater = updater
	e.st.clean = make(map[int]bool)
	life := e.life
	e.sched.Frame(func() {
		if life != e.life {
			return
		}
		st := &e.st
		for _, s := range st.sections {
			if !s.Shown() || st.clean[s.Index()] {
				continue
			}
			if st.updater != nil {
				for _, it := range s.Items() {
					st.updater(it.ID)
				}
			}
			st.clean[s.Index()] = true
		}
	})
}
