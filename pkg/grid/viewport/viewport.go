// Package viewport reports when observed targets cross the visible region.
//
// [Observer] is the capability the tiling engine depends on: register
// targets, receive batches of [Crossing] events, disconnect. [Tracker] is a
// geometric implementation driven by the host, which reports its scroll
// position with [Tracker.SetViewport] and asks for re-evaluation after
// layout changes with [Tracker.Refresh].
//
// A target intersects the viewport when any part of it is visible, so a
// target that only touches the viewport edge does not.
package viewport

import "sync"

// Target is a region of content that can be observed.
type Target interface {
	Index() int
	Bounds() (top, height float64)
}

// Crossing reports that a target entered or left the viewport.
type Crossing struct {
	Target       Target
	Intersecting bool
}

// Observer watches targets and reports crossings.
type Observer interface {
	Observe(t Target)
	Disconnect()
}

// Notify receives a batch of crossings.
type Notify func([]Crossing)

// Intersects reports whether [top, top+height) overlaps the viewport with a
// non-zero area.
func Intersects(top, height, viewTop, viewHeight float64) bool {
	return height > 0 && viewHeight > 0 && top < viewTop+viewHeight && top+height > viewTop
}

// Tracker is an [Observer] that evaluates target bounds against a viewport
// set by the host. It is safe for concurrent use; notifications are
// delivered synchronously on the calling goroutine, outside the lock.
type Tracker struct {
	mu        sync.Mutex
	notify    Notify
	top       float64
	height    float64
	targets   []Target
	state     map[Target]bool
	connected bool
}

// NewTracker returns a connected tracker with an empty viewport.
func NewTracker(notify Notify) *Tracker {
	return &Tracker{
		notify:    notify,
		state:     make(map[Target]bool),
		connected: true,
	}
}

// Observe registers t and reports its initial state. Observing the same
// target twice is a no-op.
func (tr *Tracker) Observe(t Target) {
	tr.mu.Lock()
	if !tr.connected {
		tr.mu.Unlock()
		return
	}
	if _, ok := tr.state[t]; ok {
		tr.mu.Unlock()
		return
	}
	top, h := t.Bounds()
	in := Intersects(top, h, tr.top, tr.height)
	tr.targets = append(tr.targets, t)
	tr.state[t] = in
	notify := tr.notify
	tr.mu.Unlock()

	if notify != nil {
		notify([]Crossing{{Target: t, Intersecting: in}})
	}
}

// Disconnect stops all observation. Later calls to any method are no-ops.
func (tr *Tracker) Disconnect() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.connected = false
	tr.targets = nil
	tr.state = make(map[Target]bool)
}

// SetViewport moves the viewport and reports targets whose state changed.
func (tr *Tracker) SetViewport(top, height float64) {
	tr.mu.Lock()
	tr.top, tr.height = top, height
	tr.mu.Unlock()
	tr.Refresh()
}

// Viewport returns the current viewport.
func (tr *Tracker) Viewport() (top, height float64) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.top, tr.height
}

// Refresh re-reads every target's bounds and reports changes.
func (tr *Tracker) Refresh() {
	tr.mu.Lock()
	if !tr.connected {
		tr.mu.Unlock()
		return
	}
	var batch []Crossing
	for _, t := range tr.targets {
		top, h := t.Bounds()
		in := Intersects(top, h, tr.top, tr.height)
		if in != tr.state[t] {
			tr.state[t] = in
			batch = append(batch, Crossing{Target: t, Intersecting: in})
		}
	}
	notify := tr.notify
	tr.mu.Unlock()

	if len(batch) > 0 && notify != nil {
		notify(batch)
	}
}

// Visible returns the indices of targets currently intersecting, in
// observation order.
func (tr *Tracker) Visible() []int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	var out []int
	for _, t := range tr.targets {
		if tr.state[t] {
			out = append(out, t.Index())
		}
	}
	return out
}
