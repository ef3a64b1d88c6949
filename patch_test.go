package grade

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPatchAdoptKeepsLatestValue(t *testing.T) {
	var p Patch

	src := DefaultState()
	src.Exposure = Exposure{Enabled: true, EV: 0.3}
	p.Adopt(GroupExposure, src)

	src.Exposure.EV = 0.9
	p.Adopt(GroupExposure, src)

	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}
	var got State
	if !p.Peek(GroupExposure, &got) {
		t.Fatal("Peek(exposure) = false, want true")
	}
	if got.Exposure.EV != 0.9 {
		t.Errorf("EV = %v, want 0.9 (latest adopted value)", got.Exposure.EV)
	}
}

func TestPatchPeekMiss(t *testing.T) {
	var p Patch
	var dst State
	if p.Peek(GroupExposure, &dst) {
		t.Error("Peek on empty patch = true, want false")
	}
}

func TestPatchGroupsInFlushOrder(t *testing.T) {
	var p Patch
	s := DefaultState()

	// Adopt out of order; Groups returns declaration order.
	p.Adopt(GroupVignette, s)
	p.Adopt(GroupExposure, s)
	p.Adopt(GroupLUT, s)

	want := []Group{GroupExposure, GroupVignette, GroupLUT}
	if diff := cmp.Diff(want, p.Groups()); diff != "" {
		t.Errorf("Groups() mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchMerge(t *testing.T) {
	a := DefaultState()
	a.Exposure = Exposure{Enabled: true, EV: 1}
	a.Fade = Fade{Enabled: true, Amount: 0.2}

	b := DefaultState()
	b.Exposure = Exposure{Enabled: true, EV: 2}

	var p, q Patch
	p.Adopt(GroupExposure, a)
	p.Adopt(GroupFade, a)
	q.Adopt(GroupExposure, b)

	p.Merge(&q)

	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
	var got State
	p.Peek(GroupExposure, &got)
	if got.Exposure.EV != 2 {
		t.Errorf("merged EV = %v, want 2 (merge overwrites)", got.Exposure.EV)
	}
	p.Peek(GroupFade, &got)
	if got.Fade.Amount != 0.2 {
		t.Errorf("fade amount = %v, want 0.2 (merge keeps unrelated groups)", got.Fade.Amount)
	}
}

func TestPatchAdoptCopiesCurvePoints(t *testing.T) {
	src := DefaultState()
	src.ToneCurve = ToneCurve{Enabled: true, Points: []CurvePoint{{0, 0}, {1, 1}}}

	var p Patch
	p.Adopt(GroupToneCurve, src)
	src.ToneCurve.Points[0].Y = 0.5

	var got State
	p.Peek(GroupToneCurve, &got)
	if got.ToneCurve.Points[0].Y != 0 {
		t.Error("patch shares curve points with the source state")
	}
}

func TestPatchReset(t *testing.T) {
	var p Patch
	p.Adopt(GroupExposure, DefaultState())
	p.Reset()
	if !p.IsEmpty() {
		t.Error("IsEmpty() after Reset = false, want true")
	}
}

func TestFullPatchCarriesEveryGroup(t *testing.T) {
	p := FullPatch(DefaultState())
	if p.Len() != GroupCount {
		t.Errorf("Len() = %d, want %d", p.Len(), GroupCount)
	}
}

func TestDiff(t *testing.T) {
	base := DefaultState()

	tests := []struct {
		name string
		edit func(*State)
		want []Group
	}{
		{
			name: "identical states",
			edit: func(*State) {},
			want: nil,
		},
		{
			name: "single scalar change",
			edit: func(s *State) { s.Exposure.EV = 1 },
			want: []Group{GroupExposure},
		},
		{
			name: "two changes in flush order",
			edit: func(s *State) {
				s.Vignette.Amount = -0.3
				s.Contrast.Amount = 0.2
			},
			want: []Group{GroupContrast, GroupVignette},
		},
		{
			name: "hex respelling is not a change",
			edit: func(s *State) {
				s.BackgroundPattern.Color1 = "#404040ff"
			},
			want: nil,
		},
		{
			name: "inactive curve point edits are not a change",
			edit: func(s *State) {
				s.ToneCurve.Points = []CurvePoint{{0.5, 0.5}}
			},
			want: nil,
		},
		{
			name: "replaced lut payload",
			edit: func(s *State) {
				s.LUT.Cube = &LUTData{Size: 2, Table: make([]float32, 24)}
			},
			want: []Group{GroupLUT},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base.Clone()
			tt.edit(b)
			if diff := cmp.Diff(tt.want, Diff(base, b)); diff != "" {
				t.Errorf("Diff mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStateCloneIsIndependent(t *testing.T) {
	a := DefaultState()
	a.ToneCurve = ToneCurve{Enabled: true, Points: []CurvePoint{{0, 0}, {1, 1}}}

	b := a.Clone()
	b.ToneCurve.Points[1].Y = 0.4
	b.Exposure.EV = 5

	if a.ToneCurve.Points[1].Y != 1 {
		t.Error("clone shares curve points with the original")
	}
	if a.Exposure.EV != 0 {
		t.Error("clone shares scalar state with the original")
	}
}

func TestSanitizeStateDivisors(t *testing.T) {
	s := DefaultState()
	s.Levels.Gamma = math.NaN()
	s.LensDistortion.Scale = math.Inf(1)
	s.RadialMask.RX = math.Inf(-1)
	s.Grain.Amount = math.NaN()

	SanitizeState(s)

	if s.Levels.Gamma != epsDivisor {
		t.Errorf("gamma = %v, want %v", s.Levels.Gamma, epsDivisor)
	}
	if s.LensDistortion.Scale != epsDivisor {
		t.Errorf("scale = %v, want %v", s.LensDistortion.Scale, epsDivisor)
	}
	if s.RadialMask.RX != epsDivisor {
		t.Errorf("rx = %v, want %v", s.RadialMask.RX, epsDivisor)
	}
	if s.Grain.Amount != 0 {
		t.Errorf("grain amount = %v, want 0", s.Grain.Amount)
	}
}
