package tile

import (
	"github.com/matzehuels/flashlight/pkg/errors"
)

// Row is an ordered group of items sharing one height.
type Row struct {
	Items []Item `json:"items"`

	// Justified is false only for the final row emitted at end of data,
	// which did not accumulate enough aspect ratio to fill the width.
	Justified bool `json:"justified"`
}

// AspectSum returns the sum of the row's aspect ratios.
func (r Row) AspectSum() float64 {
	var sum float64
	for _, it := range r.Items {
		sum += it.AspectRatio
	}
	return sum
}

// Result is the output of [Pack].
type Result struct {
	Rows      []Row
	Remainder []Item
}

// Items flattens rows back into the item sequence they were packed from.
func Items(rows []Row) []Item {
	var n int
	for _, r := range rows {
		n += len(r.Items)
	}
	items := make([]Item, 0, n)
	for _, r := range rows {
		items = append(items, r.Items...)
	}
	return items
}

// ValidateThreshold reports whether threshold can close rows.
func ValidateThreshold(threshold float64) error {
	if !positive(threshold) {
		return errors.New(errors.ErrCodeInvalidOptions, "row aspect ratio threshold must be a positive number, got %v", threshold)
	}
	return nil
}

// Pack partitions items into rows. A row closes once its aspect sum reaches
// threshold. If hasMore is true the unclosed tail is withheld as the
// remainder; otherwise it becomes a final under-filled row.
func Pack(items []Item, threshold float64, hasMore bool) (Result, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return Result{}, err
	}
	if err := ValidateItems(items); err != nil {
		return Result{}, err
	}

	var (
		res   Result
		start int
		sum   float64
	)
	for i, it := range items {
		sum += it.AspectRatio
		if sum >= threshold {
			res.Rows = append(res.Rows, Row{Items: clone(items[start : i+1]), Justified: true})
			start, sum = i+1, 0
		}
	}

	if tail := items[start:]; len(tail) > 0 {
		if hasMore {
			res.Remainder = clone(tail)
		} else {
			res.Rows = append(res.Rows, Row{Items: clone(tail)})
		}
	}
	return res, nil
}

func clone(items []Item) []Item {
	return append([]Item(nil), items...)
}
