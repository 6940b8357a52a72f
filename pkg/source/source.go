package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
)

// Page size limits.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Page is one page of a [Source].
type Page = grid.Page[string]

// Source serves pages of items.
type Source interface {
	// Name identifies the source in cache keys and logs.
	Name() string

	// Page returns up to limit items starting at cursor.
	Page(ctx context.Context, cursor string, limit int) (Page, error)
}

// Fetcher adapts src to the engine's fetch contract with a fixed page
// size. The engine's initial key is the empty cursor.
func Fetcher(src Source, limit int) grid.Fetcher[string] {
	return grid.FetcherFunc[string](func(ctx context.Context, cursor string) (Page, error) {
		return src.Page(ctx, cursor, limit)
	})
}

// ValidateLimit checks a requested page size. Zero selects [DefaultLimit].
func ValidateLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return DefaultLimit, nil
	case limit < 0 || limit > MaxLimit:
		return 0, errors.New(errors.ErrCodeInvalidInput, "page size must be between 1 and %d, got %d", MaxLimit, limit)
	}
	return limit, nil
}

// Next returns a pointer to cursor, for building pages.
func Next(cursor string) *string { return &cursor }

// =============================================================================
// Wire format
// =============================================================================

// EncodePage writes p as JSON.
func EncodePage(w io.Writer, p Page) error {
	if p.Items == nil {
		p.Items = []tile.Item{}
	}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	return nil
}

// DecodePage reads a JSON page and validates its items.
func DecodePage(r io.Reader) (Page, error) {
	var p Page
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeInvalidSource, err, "decode page")
	}
	if err := tile.ValidateItems(p.Items); err != nil {
		return Page{}, err
	}
	return p, nil
}
