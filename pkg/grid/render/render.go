// Package render defines the contract the tiling engine uses to mount and
// unmount item visuals.
//
// The engine decides when an item is drawn; a [Renderer] decides how. Every
// successful [Renderer.Render] returns a [Handle] that the engine later
// passes back to [Renderer.Unmount]. Renderers that can move an existing
// visual in place implement [Mover]; the engine uses it on reflow instead of
// unmounting and rendering again.
//
// [Mux] maps each [tile.Kind] to its own renderer and fails with
// [ErrUnknownKind] for kinds it was not configured with.
package render

import (
	"fmt"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
)

// Rect is an axis-aligned rectangle in content coordinates (y grows down
// from the top of the grid).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the y coordinate of the rectangle's lower edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Right returns the x coordinate of the rectangle's right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Mount describes where an item is drawn.
type Mount struct {
	Section int
	Rect    Rect
}

// Handle is an opaque reference to a mounted visual.
type Handle any

// Renderer draws items into mount regions.
type Renderer interface {
	Render(item tile.Item, at Mount) (Handle, error)
	Unmount(h Handle)
}

// Mover is implemented by renderers that can reposition a mounted visual.
type Mover interface {
	Move(h Handle, to Mount)
}

// ErrUnknownKind is returned by [Mux] for an item kind with no strategy.
var ErrUnknownKind = errors.New(errors.ErrCodeUnknownKind, "no renderer for item kind")

// Mux dispatches rendering by item kind.
type Mux struct {
	strategies map[tile.Kind]Renderer
}

// NewMux returns a Mux with the given strategies. It panics on an invalid
// kind or a nil renderer, both of which are programming errors.
func NewMux(strategies map[tile.Kind]Renderer) *Mux {
	m := &Mux{strategies: make(map[tile.Kind]Renderer, len(strategies))}
	for k, r := range strategies {
		if !k.Valid() {
			panic(fmt.Sprintf("render: invalid kind %q", k))
		}
		if r == nil {
			panic(fmt.Sprintf("render: nil renderer for kind %q", k))
		}
		m.strategies[k] = r
	}
	return m
}

type muxHandle struct {
	kind  tile.Kind
	inner Handle
}

// Render draws item with the strategy registered for its kind.
func (m *Mux) Render(item tile.Item, at Mount) (Handle, error) {
	r, ok := m.strategies[item.Kind]
	if !ok {
		return nil, errors.Wrap(errors.ErrCodeUnknownKind, ErrUnknownKind, "item %q has kind %q", item.ID, item.Kind)
	}
	h, err := r.Render(item, at)
	if err != nil {
		return nil, err
	}
	return muxHandle{kind: item.Kind, inner: h}, nil
}

// Unmount frees a visual created by [Mux.Render].
func (m *Mux) Unmount(h Handle) {
	mh, ok := h.(muxHandle)
	if !ok {
		return
	}
	m.strategies[mh.kind].Unmount(mh.inner)
}

// Move repositions h when its strategy implements [Mover]. It reports false
// when the strategy cannot move visuals.
func (m *Mux) Move(h Handle, to Mount) bool {
	mh, ok := h.(muxHandle)
	if !ok {
		return false
	}
	mv, ok := m.strategies[mh.kind].(Mover)
	if !ok {
		return false
	}
	mv.Move(mh.inner, to)
	return true
}

// Relocate moves h to a new mount using r's [Mover] implementation, or
// unmounts it and renders item again when r cannot move visuals. The
// returned handle replaces h.
func Relocate(r Renderer, h Handle, item tile.Item, to Mount) (Handle, error) {
	switch mv := r.(type) {
	case *Mux:
		if mv.Move(h, to) {
			return h, nil
		}
	case Mover:
		mv.Move(h, to)
		return h, nil
	}
	r.Unmount(h)
	return r.Render(item, to)
}

// Funcs adapts a pair of functions to [Renderer].
type Funcs struct {
	RenderFunc  func(item tile.Item, at Mount) (Handle, error)
	UnmountFunc func(h Handle)
}

// Render calls f.RenderFunc.
func (f Funcs) Render(item tile.Item, at Mount) (Handle, error) { return f.RenderFunc(item, at) }

// Unmount calls f.UnmountFunc if set.
func (f Funcs) Unmount(h Handle) {
	if f.UnmountFunc != nil {
		f.UnmountFunc(h)
	}
}
