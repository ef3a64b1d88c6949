package grade

import (
	"image/color"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want RGBA
	}{
		{"short white", "#fff", RGBA{1, 1, 1, 1}},
		{"long white", "#ffffff", RGBA{1, 1, 1, 1}},
		{"no hash", "ffffff", RGBA{1, 1, 1, 1}},
		{"uppercase", "#FFFFFF", RGBA{1, 1, 1, 1}},
		{"short gray", "#888", RGBA{136.0 / 255, 136.0 / 255, 136.0 / 255, 1}},
		{"with alpha", "#ff000080", RGBA{1, 0, 0, 128.0 / 255}},
		{"short alpha", "#f00f", RGBA{1, 0, 0, 1}},
		{"malformed", "#zz", RGBA{0, 0, 0, 1}},
		{"empty", "", RGBA{0, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hex(tt.hex); got != tt.want {
				t.Errorf("Hex(%q) = %v, want %v", tt.hex, got, tt.want)
			}
		})
	}
}

// Different spellings of the same color must normalize to one value;
// the background-pattern group's diffing depends on it.
func TestHex_NormalizationEquivalence(t *testing.T) {
	pairs := [][2]string{
		{"#fff", "#ffffff"},
		{"#FFF", "ffffff"},
		{"#a1b2c3", "#A1B2C3"},
		{"#f00", "#ff0000"},
	}
	for _, p := range pairs {
		if Hex(p[0]) != Hex(p[1]) {
			t.Errorf("Hex(%q) = %v, Hex(%q) = %v, want equal", p[0], Hex(p[0]), p[1], Hex(p[1]))
		}
	}
}

func TestRGBA_ColorRoundtrip(t *testing.T) {
	original := RGBA{R: 0.8, G: 0.4, B: 0.2, A: 1}
	back := FromColor(original.Color())

	const tolerance = 0.01
	if absDiff(original.R, back.R) > tolerance ||
		absDiff(original.G, back.G) > tolerance ||
		absDiff(original.B, back.B) > tolerance ||
		absDiff(original.A, back.A) > tolerance {
		t.Errorf("roundtrip: %v -> %v", original, back)
	}
}

func TestFromColor(t *testing.T) {
	got := FromColor(color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	if absDiff(got.R, 1) > 0.001 || absDiff(got.G, 0) > 0.001 || absDiff(got.A, 1) > 0.001 {
		t.Errorf("FromColor(red) = %v", got)
	}
}

func TestRGBA_Premultiply(t *testing.T) {
	c := RGBA{R: 1, G: 0.5, B: 0, A: 0.5}
	got := c.Premultiply()
	want := RGBA{R: 0.5, G: 0.25, B: 0, A: 0.5}
	if absDiff(got.R, want.R) > 1e-9 || absDiff(got.G, want.G) > 1e-9 || got.A != want.A {
		t.Errorf("Premultiply() = %v, want %v", got, want)
	}
}

func TestRGBA_Lerp(t *testing.T) {
	got := Black.Lerp(White, 0.5)
	if absDiff(got.R, 0.5) > 1e-9 || absDiff(got.G, 0.5) > 1e-9 || absDiff(got.B, 0.5) > 1e-9 {
		t.Errorf("Black.Lerp(White, 0.5) = %v", got)
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
