package tile

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/flashlight/pkg/errors"
)

// Kind identifies how an item is drawn. The set is closed; renderers dispatch
// on it and reject anything else.
type Kind string

// Item kinds.
const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindFrame Kind = "frame"
)

// Kinds lists every known item kind.
var Kinds = []Kind{KindImage, KindVideo, KindFrame}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindVideo, KindFrame:
		return true
	}
	return false
}

// Item is one cell of the grid.
type Item struct {
	ID          string          `json:"id"`
	AspectRatio float64         `json:"aspect_ratio"`
	Kind        Kind            `json:"kind,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the fields packing depends on.
func (it Item) Validate() error {
	if it.ID == "" {
		return errors.New(errors.ErrCodeInvalidItem, "item has no id")
	}
	if !positive(it.AspectRatio) {
		return errors.New(errors.ErrCodeInvalidItem, "item %q: aspect ratio must be a positive number, got %v", it.ID, it.AspectRatio)
	}
	return nil
}

// Normalize returns a copy of it with an empty kind defaulted to [KindImage].
func (it Item) Normalize() Item {
	if it.Kind == "" {
		it.Kind = KindImage
	}
	return it
}

// ValidateItems validates every item, returning the first failure.
func ValidateItems(items []Item) error {
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidItem, err, "item %d", i)
		}
	}
	return nil
}

// IDs returns the item ids in order.
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
