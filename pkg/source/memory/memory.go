// Package memory serves pages from an in-memory slice.
//
// Cursors are decimal offsets into the slice; the empty cursor is offset 0.
package memory

import (
	"context"
	"strconv"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/source"
)

// Source is a [source.Source] over a fixed item slice.
type Source struct {
	name  string
	items []tile.Item
}

var _ source.Source = (*Source)(nil)

// New returns a source over a copy of items.
func New(name string, items []tile.Item) *Source {
	return &Source{name: name, items: append([]tile.Item(nil), items...)}
}

// Name implements [source.Source].
func (s *Source) Name() string { return "memory:" + s.name }

// Len returns the number of items.
func (s *Source) Len() int { return len(s.items) }

// Page implements [source.Source].
func (s *Source) Page(ctx context.Context, cursor string, limit int) (source.Page, error) {
	if err := ctx.Err(); err != nil {
		return source.Page{}, err
	}
	limit, err := source.ValidateLimit(limit)
	if err != nil {
		return source.Page{}, err
	}
	off, err := parseOffset(cursor)
	if err != nil {
		return source.Page{}, err
	}
	if off > len(s.items) {
		return source.Page{}, errors.New(errors.ErrCodeInvalidCursor, "offset %d is past the end (%d items)", off, len(s.items))
	}

	end := min(off+limit, len(s.items))
	page := source.Page{Items: append([]tile.Item(nil), s.items[off:end]...)}
	if end < len(s.items) {
		page.Next = source.Next(strconv.Itoa(end))
	}
	return page, nil
}

func parseOffset(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	off, err := strconv.Atoi(cursor)
	if err != nil || off < 0 {
		return 0, errors.New(errors.ErrCodeInvalidCursor, "invalid cursor %q", cursor)
	}
	return off, nil
}
