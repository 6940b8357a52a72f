// Package section groups rows into the engine's unit of mounting and
// visibility observation.
//
// Observing one target per section instead of one per row bounds observer
// overhead by the section count; the cost is coarser reveal granularity.
// A section owns its rows' geometry and the handles of any visuals it has
// mounted. Whether a section's items have been passed to the lazy-update
// callback is tracked by the engine, not here.
package section

import (
	"github.com/matzehuels/flashlight/pkg/grid/render"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
)

// Placement is one item's position in content coordinates.
type Placement struct {
	Item tile.Item   `json:"item"`
	Rect render.Rect `json:"rect"`
}

// Section is a fixed batch of rows with its geometry.
type Section struct {
	index   int
	rows    []tile.Row
	top     float64
	height  float64
	place   []Placement
	shown   bool
	handles []render.Handle
}

// New returns an unpositioned section. Call [Section.Set] before use.
func New(index int, rows []tile.Row) *Section {
	return &Section{index: index, rows: rows}
}

// Group splits rows into consecutive batches of n. The last batch may be
// shorter.
func Group(rows []tile.Row, n int) [][]tile.Row {
	if n <= 0 {
		n = 1
	}
	groups := make([][]tile.Row, 0, (len(rows)+n-1)/n)
	for len(rows) > 0 {
		k := min(n, len(rows))
		groups = append(groups, rows[:k:k])
		rows = rows[k:]
	}
	return groups
}

// Index returns the section's position in commit order.
func (s *Section) Index() int { return s.index }

// Bounds returns the section's vertical extent.
func (s *Section) Bounds() (top, height float64) { return s.top, s.height }

// Top returns the section's vertical offset.
func (s *Section) Top() float64 { return s.top }

// Height returns the section's height including the margin under each row.
func (s *Section) Height() float64 { return s.height }

// Rows returns the section's rows.
func (s *Section) Rows() []tile.Row { return s.rows }

// Items returns the section's items in order.
func (s *Section) Items() []tile.Item { return tile.Items(s.rows) }

// Placements returns every item with its current rectangle.
func (s *Section) Placements() []Placement { return s.place }

// Shown reports whether the section's visuals are mounted.
func (s *Section) Shown() bool { return s.shown }

// Set positions the section at top and lays out every row for m. Each row
// is followed by one margin of vertical space.
func (s *Section) Set(top float64, m tile.Metrics) {
	s.top = top
	s.place = make([]Placement, 0, len(s.place))

	y := top
	for _, row := range s.rows {
		l := tile.Layout(row, m)
		for i, it := range row.Items {
			s.place = append(s.place, Placement{
				Item: it,
				Rect: render.Rect{X: l.Lefts[i], Y: y, Width: l.Widths[i], Height: l.Height},
			})
		}
		y += l.Height + m.Margin
	}
	s.height = y - top
}

// Show mounts every item through r. It is a no-op when already shown. Items
// that fail to render are skipped; the first error is returned after the
// rest of the section has been mounted.
func (s *Section) Show(r render.Renderer) error {
	if s.shown {
		return nil
	}
	s.shown = true
	s.handles = make([]render.Handle, len(s.place))

	var first error
	for i, p := range s.place {
		h, err := r.Render(p.Item, s.mount(p))
		if err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		s.handles[i] = h
	}
	return first
}

// Hide unmounts every visual the section mounted. Geometry is kept.
func (s *Section) Hide(r render.Renderer) {
	if !s.shown {
		return
	}
	s.shown = false
	for _, h := range s.handles {
		if h != nil {
			r.Unmount(h)
		}
	}
	s.handles = nil
}

// Reposition moves mounted visuals to the rectangles computed by the last
// [Section.Set]. Hidden sections have nothing to move.
func (s *Section) Reposition(r render.Renderer) error {
	if !s.shown {
		return nil
	}
	var first error
	for i, p := range s.place {
		h := s.handles[i]
		if h == nil {
			continue
		}
		nh, err := render.Relocate(r, h, p.Item, s.mount(p))
		if err != nil && first == nil {
			first = err
		}
		s.handles[i] = nh
	}
	return first
}

func (s *Section) mount(p Placement) render.Mount {
	return render.Mount{Section: s.index, Rect: p.Rect}
}
