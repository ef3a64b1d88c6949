package grade

import (
	"math"
	"testing"
)

func TestCurveTableIdentityBelowTwoPoints(t *testing.T) {
	tests := []struct {
		name   string
		points []CurvePoint
	}{
		{name: "no points", points: nil},
		{name: "one point", points: []CurvePoint{{0.5, 0.9}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := stdComputation{}.CurveTable(tt.points, 5)
			want := []float32{0, 0.25, 0.5, 0.75, 1}
			for i := range want {
				if !approx32(table[i], want[i]) {
					t.Errorf("table[%d] = %v, want %v", i, table[i], want[i])
				}
			}
		})
	}
}

func TestCurveTableLinearSegments(t *testing.T) {
	points := []CurvePoint{{0, 0}, {0.5, 0.25}, {1, 1}}
	table := stdComputation{}.CurveTable(points, 5)

	want := []float32{0, 0.125, 0.25, 0.625, 1}
	for i := range want {
		if !approx32(table[i], want[i]) {
			t.Errorf("table[%d] = %v, want %v", i, table[i], want[i])
		}
	}
}

func TestCurveTableSortsInputPoints(t *testing.T) {
	sorted := stdComputation{}.CurveTable([]CurvePoint{{0, 0}, {1, 1}}, 9)
	shuffled := stdComputation{}.CurveTable([]CurvePoint{{1, 1}, {0, 0}}, 9)
	for i := range sorted {
		if sorted[i] != shuffled[i] {
			t.Fatalf("table[%d]: sorted %v != shuffled %v", i, sorted[i], shuffled[i])
		}
	}
}

func TestCurveTableClampsOutput(t *testing.T) {
	table := stdComputation{}.CurveTable([]CurvePoint{{0, -1}, {1, 2}}, 16)
	for i, v := range table {
		if v < 0 || v > 1 {
			t.Errorf("table[%d] = %v, outside [0, 1]", i, v)
		}
	}
}

func TestCurveTableHoldsEndpointsOutsideSpan(t *testing.T) {
	// Control points cover only [0.25, 0.75]; outside that span the
	// nearest endpoint value holds.
	table := stdComputation{}.CurveTable([]CurvePoint{{0.25, 0.4}, {0.75, 0.6}}, 5)
	if !approx32(table[0], 0.4) {
		t.Errorf("table[0] = %v, want 0.4", table[0])
	}
	if !approx32(table[4], 0.6) {
		t.Errorf("table[4] = %v, want 0.6", table[4])
	}
}

func approx32(a, b float32) bool {
	return math.Abs(float64(a)-float64(b)) < 1e-6
}
