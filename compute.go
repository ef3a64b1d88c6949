package grade

import "sort"

// EffectComputation produces CPU-side buffers the engine uploads as
// device resources. Implementations must be pure: same input, same
// output, no I/O. The built-in implementation is used unless
// WithComputation overrides it.
type EffectComputation interface {
	// CurveTable rasterizes tone-curve control points into a lookup
	// table with size entries over [0, 1]. Fewer than two points yield
	// the identity ramp.
	CurveTable(points []CurvePoint, size int) []float32
}

// stdComputation is the built-in EffectComputation.
type stdComputation struct{}

var _ EffectComputation = stdComputation{}

func (stdComputation) CurveTable(points []CurvePoint, size int) []float32 {
	if size < 2 {
		size = 2
	}
	table := make([]float32, size)
	if len(points) < 2 {
		for i := range table {
			table[i] = float32(i) / float32(size-1)
		}
		return table
	}

	pts := make([]CurvePoint, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	seg := 0
	for i := range table {
		x := float64(i) / float64(size-1)
		for seg < len(pts)-2 && x > pts[seg+1].X {
			seg++
		}
		p0, p1 := pts[seg], pts[seg+1]
		var y float64
		switch {
		case x <= p0.X:
			y = p0.Y
		case x >= p1.X:
			y = p1.Y
		default:
			t := (x - p0.X) / (p1.X - p0.X)
			y = p0.Y + (p1.Y-p0.Y)*t
		}
		table[i] = float32(clamp01(y))
	}
	return table
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
