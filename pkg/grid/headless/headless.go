// Package headless provides an in-memory host for the grid engine.
//
// [Surface] is a scrollable region with no screen behind it: scroll moves
// a [viewport.Tracker] and the engine reacts exactly as it would to a real
// host. [Recorder] is a renderer that keeps every mounted visual in memory.
// The pair backs the layout command and the engine's tests.
package headless

import (
	"cmp"
	"slices"

	"github.com/matzehuels/flashlight/pkg/grid/render"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/grid/viewport"
)

// =============================================================================
// Surface
// =============================================================================

// Surface is an in-memory scroll container.
type Surface struct {
	width, height float64
	content       float64
	top           float64
	tracker       *viewport.Tracker
}

// NewSurface returns a surface of the given size scrolled to the top.
func NewSurface(width, height float64) *Surface {
	return &Surface{width: width, height: height}
}

// Size returns the surface size.
func (s *Surface) Size() (width, height float64) { return s.width, s.height }

// SetSize changes the surface size. The host reports the new width to the
// engine separately.
func (s *Surface) SetSize(width, height float64) {
	s.width, s.height = width, height
	s.top = s.clamp(s.top)
	s.sync()
}

// SetContentHeight sets the scrollable height and re-evaluates visibility.
func (s *Surface) SetContentHeight(h float64) {
	s.content = h
	s.top = s.clamp(s.top)
	s.sync()
}

// ContentHeight returns the scrollable height.
func (s *Surface) ContentHeight() float64 { return s.content }

// ScrollTop returns the scroll offset.
func (s *Surface) ScrollTop() float64 { return s.top }

// ScrollTo moves the viewport, clamped to the content.
func (s *Surface) ScrollTo(top float64) {
	s.top = s.clamp(top)
	s.sync()
}

// ScrollBy moves the viewport by dy.
func (s *Surface) ScrollBy(dy float64) { s.ScrollTo(s.top + dy) }

// AtBottom reports whether the viewport shows the end of the content.
func (s *Surface) AtBottom() bool { return s.top+s.height >= s.content }

// NewObserver returns a tracker bound to this surface's viewport.
func (s *Surface) NewObserver(notify viewport.Notify) viewport.Observer {
	s.tracker = viewport.NewTracker(notify)
	s.tracker.SetViewport(s.top, s.height)
	return s.tracker
}

// Visible returns the indices of sections in the viewport.
func (s *Surface) Visible() []int {
	if s.tracker == nil {
		return nil
	}
	return s.tracker.Visible()
}

func (s *Surface) clamp(top float64) float64 {
	return max(0, min(top, s.content-s.height))
}

func (s *Surface) sync() {
	if s.tracker != nil {
		s.tracker.SetViewport(s.top, s.height)
	}
}

// =============================================================================
// Recorder
// =============================================================================

// Visual is a mounted item.
type Visual struct {
	Item  tile.Item
	Mount render.Mount
}

// Recorder is a [render.Renderer] and [render.Mover] that records mounts.
type Recorder struct {
	live    map[*Visual]struct{}
	renders map[string]int

	// Fail, when set, makes Render return its error for matching items.
	Fail func(tile.Item) error

	Unmounts int
	Moves    int
}

var (
	_ render.Renderer = (*Recorder)(nil)
	_ render.Mover    = (*Recorder)(nil)
)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		live:    make(map[*Visual]struct{}),
		renders: make(map[string]int),
	}
}

// Render implements [render.Renderer].
func (r *Recorder) Render(item tile.Item, at render.Mount) (render.Handle, error) {
	if r.Fail != nil {
		if err := r.Fail(item); err != nil {
			return nil, err
		}
	}
	v := &Visual{Item: item, Mount: at}
	r.live[v] = struct{}{}
	r.renders[item.ID]++
	return v, nil
}

// Unmount implements [render.Renderer].
func (r *Recorder) Unmount(h render.Handle) {
	v, ok := h.(*Visual)
	if !ok {
		return
	}
	if _, ok := r.live[v]; ok {
		delete(r.live, v)
		r.Unmounts++
	}
}

// Move implements [render.Mover].
func (r *Recorder) Move(h render.Handle, to render.Mount) {
	if v, ok := h.(*Visual); ok {
		v.Mount = to
		r.Moves++
	}
}

// Renders returns how many times id has been rendered.
func (r *Recorder) Renders(id string) int { return r.renders[id] }

// Len returns the number of mounted visuals.
func (r *Recorder) Len() int { return len(r.live) }

// Live returns the mounted visuals in reading order.
func (r *Recorder) Live() []Visual {
	out := make([]Visual, 0, len(r.live))
	for v := range r.live {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b Visual) int {
		if c := cmp.Compare(a.Mount.Rect.Y, b.Mount.Rect.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.Mount.Rect.X, b.Mount.Rect.X)
	})
	return out
}

// Mounted reports whether id has a mounted visual.
func (r *Recorder) Mounted(id string) bool {
	for v := range r.live {
		if v.Item.ID == id {
			return true
		}
	}
	return false
}
