package grid

import "github.com/matzehuels/flashlight/pkg/grid/section"

// Snapshot is a serializable view of the committed layout.
type Snapshot struct {
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	Options   Options           `json:"options"`
	Status    Status            `json:"status"`
	Pending   int               `json:"pending_items"`
	Sections  []SectionSnapshot `json:"sections"`
	ItemCount int               `json:"item_count"`
}

// SectionSnapshot describes one committed section.
type SectionSnapshot struct {
	Index      int                 `json:"index"`
	Top        float64             `json:"top"`
	Height     float64             `json:"height"`
	Rows       int                 `json:"rows"`
	Shown      bool                `json:"shown"`
	Placements []section.Placement `json:"placements"`
}

// Snapshot captures the current layout. Pending counts items held in the
// row and item remainders.
func (e *Engine[K]) Snapshot() Snapshot {
	st := &e.st
	snap := Snapshot{
		Width:   st.width,
		Height:  st.height,
		Options: st.opts,
		Status:  st.status(),
		Pending: len(st.itemRem),
	}
	for _, r := range st.rowRem {
		snap.Pending += len(r.Items)
	}
	for _, s := range st.sections {
		snap.Sections = append(snap.Sections, SectionSnapshot{
			Index:      s.Index(),
			Top:        s.Top(),
			Height:     s.Height(),
			Rows:       len(s.Rows()),
			Shown:      s.Shown(),
			Placements: append([]section.Placement(nil), s.Placements()...),
		})
		snap.ItemCount += len(s.Placements())
	}
	return snap
}
