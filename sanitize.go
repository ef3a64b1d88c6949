package grade

import "math"

// epsDivisor replaces non-finite values in fields the render path divides
// by. Zero would reintroduce the problem one step later, so a small
// positive epsilon is used instead.
const epsDivisor = 1e-6

// sanitize maps NaN and ±Inf to zero. The diffing engine never
// propagates non-finite numbers to the Device: a NaN written into a
// uniform block corrupts device state in ways that outlive the frame.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// sanitizeDivisor maps NaN and ±Inf to a small positive epsilon.
// Used for fields that act as divisors downstream (pivot, gamma,
// white point, mask radii).
func sanitizeDivisor(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return epsDivisor
	}
	return v
}

func sanitize3(v [3]float64) [3]float64 {
	for i := range v {
		v[i] = sanitize(v[i])
	}
	return v
}

func sanitize4(v [4]float64) [4]float64 {
	for i := range v {
		v[i] = sanitize(v[i])
	}
	return v
}

func sanitize8(v [8]float64) [8]float64 {
	for i := range v {
		v[i] = sanitize(v[i])
	}
	return v
}

func sanitizePoints(pts []CurvePoint) []CurvePoint {
	for i := range pts {
		pts[i].X = sanitize(pts[i].X)
		pts[i].Y = sanitize(pts[i].Y)
	}
	return pts
}
