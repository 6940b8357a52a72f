package grid

import (
	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/section"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
)

// Status summarizes the fetch driver.
type Status int

const (
	// StatusIdle means more pages exist and none is in flight.
	StatusIdle Status = iota
	// StatusLoading means a page is in flight.
	StatusLoading
	// StatusFailed means the last fetch failed. See [Engine.Retry].
	StatusFailed
	// StatusExhausted means every page has been loaded.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusFailed:
		return "failed"
	case StatusExhausted:
		return "exhausted"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for _, v := range []Status{StatusIdle, StatusLoading, StatusFailed, StatusExhausted} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown status %q", text)
}

// state is the layout owned by one engine epoch.
type state[K any] struct {
	sections []*section.Section
	key      *K

	width           float64
	containerHeight float64
	height          float64
	active          int

	opts    Options
	itemRem []tile.Item
	rowRem  []tile.Row

	clean   map[int]bool
	updater func(id string)

	loading bool
	epoch   uint64
	err     error
}

func newState[K any](initial K, opts Options, epoch uint64) state[K] {
	key := initial
	return state[K]{
		key:   &key,
		opts:  opts,
		clean: make(map[int]bool),
		epoch: epoch,
	}
}

func (st *state[K]) metrics() tile.Metrics {
	return tile.Metrics{
		Width:     st.width,
		Margin:    st.opts.Margin,
		Threshold: st.opts.RowAspectRatioThreshold,
	}
}

// items flattens every loaded item in order, remainders included.
func (st *state[K]) items() []tile.Item {
	var out []tile.Item
	for _, s := range st.sections {
		out = append(out, s.Items()...)
	}
	out = append(out, tile.Items(st.rowRem)...)
	return append(out, st.itemRem...)
}

func (st *state[K]) status() Status {
	switch {
	case st.loading:
		return StatusLoading
	case st.err != nil:
		return StatusFailed
	case st.key == nil:
		return StatusExhausted
	}
	return StatusIdle
}
