package tile

// Metrics are the container parameters row geometry depends on.
type Metrics struct {
	Width     float64
	Margin    float64
	Threshold float64
}

// RowLayout is the geometry of one row, relative to the row's top-left corner.
type RowLayout struct {
	Height float64
	Lefts  []float64
	Widths []float64
}

// Layout computes the height and per-item horizontal placement of row.
// Heights clamp at zero when margins alone exceed the width.
func Layout(row Row, m Metrics) RowLayout {
	n := len(row.Items)
	out := RowLayout{
		Lefts:  make([]float64, n),
		Widths: make([]float64, n),
	}
	if n == 0 {
		return out
	}

	avail := m.Width - float64(n-1)*m.Margin
	if avail < 0 {
		avail = 0
	}

	sum := row.AspectSum()
	if !row.Justified && sum < m.Threshold {
		sum = m.Threshold
	}
	out.Height = avail / sum

	var x float64
	for i, it := range row.Items {
		w := it.AspectRatio * out.Height
		out.Lefts[i] = x
		out.Widths[i] = w
		x += w + m.Margin
	}
	return out
}

// Span returns the total horizontal extent of the row including margins.
func (l RowLayout) Span(margin float64) float64 {
	if len(l.Widths) == 0 {
		return 0
	}
	var total float64
	for _, w := range l.Widths {
		total += w
	}
	return total + float64(len(l.Widths)-1)*margin
}
