package grade

import "math"

// curveTableSize is the resolution of the rasterized tone-curve table.
const curveTableSize = 256

// Engine owns one State and the dirty-group set: the diffing half of the
// synchronization core.
//
// Setters mark their group dirty unconditionally; the caller already
// knows the value changed, so no comparison is spent. ApplyState and
// ApplyPatch are the comparing paths: they mark only groups whose
// observable value actually differs. Flush pushes dirty groups to a
// Device in the fixed Group declaration order, then clears the set.
//
// The engine performs no I/O and never fails. Non-finite numeric input
// is sanitized on the way in: zero for ordinary fields, a small positive
// epsilon for fields used as divisors. An Engine is confined to a single
// goroutine; see package remote for the cross-goroutine protocol.
type Engine struct {
	state   State
	dirty   groupSet
	content groupSet // resource-bound groups whose payload changed
	comp    EffectComputation
	scratch []float32
	curve   []float32 // last rasterized tone-curve table
}

// EngineOption configures a new Engine.
type EngineOption func(*Engine)

// WithComputation overrides the built-in EffectComputation.
func WithComputation(c EffectComputation) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.comp = c
		}
	}
}

// NewEngine returns an engine holding the default state with nothing
// marked dirty.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		state: *DefaultState(),
		comp:  stdComputation{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns an independent copy of the current state.
func (e *Engine) Snapshot() *State { return e.state.Clone() }

// DirtyGroups returns the groups awaiting the next flush, in flush order.
func (e *Engine) DirtyGroups() []Group { return e.dirty.groups() }

// ApplyState compares a full snapshot against the current state and
// routes only the groups whose observable value differs through the
// setter path. Groups that compare equal are never marked dirty, so
// re-applying the current state is free.
func (e *Engine) ApplyState(s *State) {
	if s == nil {
		return
	}
	in := s.Clone()
	SanitizeState(in)
	for g := Group(0); g < groupCount; g++ {
		if !groupEqual(g, &e.state, in) {
			e.applyGroup(g, in)
		}
	}
}

// ApplyPatch applies a partial snapshot. Each carried group passes
// through the same compare-then-set path ApplyState uses, so a re-sent
// unchanged value dirties nothing.
func (e *Engine) ApplyPatch(p *Patch) {
	if p == nil || p.IsEmpty() {
		return
	}
	in := p.state.Clone()
	for _, g := range p.Groups() {
		sanitizeGroup(g, in)
		if !groupEqual(g, &e.state, in) {
			e.applyGroup(g, in)
		}
	}
}

func (e *Engine) applyGroup(g Group, src *State) {
	if resourceContentChanged(g, &e.state, src) {
		e.content.add(g)
	}
	copyGroup(g, &e.state, src)
	e.dirty.add(g)
}

// MarkAllDirty marks every group dirty and every resource payload
// changed, forcing the next Flush to re-push the complete state. Used
// after device initialization and context restoration.
func (e *Engine) MarkAllDirty() {
	e.dirty = allGroups()
	for _, g := range resourceGroups {
		e.content.add(g)
	}
}

// Reset restores the default state and clears the dirty sets. The
// dispose path calls this so a reused engine starts neutral.
func (e *Engine) Reset() {
	e.state = *DefaultState()
	e.dirty.clear()
	e.content.clear()
	e.curve = nil
}

// Flush pushes every dirty group's uniform block to d in declaration
// order, refreshes the resource bindings, and clears the dirty sets.
// With no dirty groups Flush performs zero device calls.
//
// Two ordering rules hold. First, the shared edge-aware filter scratch
// radius is pushed before ShadowsHighlights or Clarity whenever either
// is dirty; both groups read it. Second, every resource slot is rebound
// on every non-empty flush regardless of dirtiness: a binding left
// pointed at a stale resource type can corrupt the device's binding
// table, so rebinding is the one exception to "only touch dirty groups".
// Content uploads still happen only when the payload actually changed.
func (e *Engine) Flush(d Device) {
	if e.dirty.empty() {
		return
	}
	n := e.dirty.count()

	if e.dirty.has(GroupShadowsHighlights) || e.dirty.has(GroupClarity) {
		r := math.Max(e.state.ShadowsHighlights.Radius, e.state.Clarity.Radius)
		e.scratch = append(e.scratch[:0], f32(r))
		d.BindUniform(SlotEdgeScratch, e.scratch)
	}

	for g := Group(0); g < groupCount; g++ {
		if !e.dirty.has(g) {
			continue
		}
		e.scratch = appendUniform(g, &e.state, e.scratch[:0])
		d.BindUniform(GroupSlot(g), e.scratch)
	}

	e.bindResources(d)
	e.dirty.clear()
	e.content.clear()
	Logger().Debug("state flushed", "groups", n)
}

func (e *Engine) bindResources(d Device) {
	if e.content.has(GroupToneCurve) {
		e.curve = e.comp.CurveTable(e.state.ToneCurve.Points, curveTableSize)
	}
	d.BindResource(SlotCurve, &Resource{Table: e.curve, Upload: e.content.has(GroupToneCurve)})
	d.BindResource(SlotLUT, &Resource{Cube: e.state.LUT.Cube, Upload: e.content.has(GroupLUT)})
	d.BindResource(SlotWatermark, &Resource{Image: e.state.Watermark.Image, Upload: e.content.has(GroupWatermark)})
	d.BindResource(SlotFalseColor, &Resource{Image: e.state.FalseColor.Palette, Upload: e.content.has(GroupFalseColor)})
}

// Setters. Each replaces one group's value, sanitizes it in place and
// marks the group dirty without comparing; use ApplyState or ApplyPatch
// when equal values should stay clean. Resource-bound setters also track
// whether the payload itself changed, separately from the toggle, so
// expensive uploads are skipped when only the enable flag moved.

// SetGeometry updates the geometry group.
func (e *Engine) SetGeometry(v Geometry) {
	e.state.Geometry = v
	e.touch(GroupGeometry)
}

// SetWhiteBalance updates the white-balance group.
func (e *Engine) SetWhiteBalance(v WhiteBalance) {
	e.state.WhiteBalance = v
	e.touch(GroupWhiteBalance)
}

// SetExposure updates the exposure group.
func (e *Engine) SetExposure(v Exposure) {
	e.state.Exposure = v
	e.touch(GroupExposure)
}

// SetContrast updates the contrast group.
func (e *Engine) SetContrast(v Contrast) {
	e.state.Contrast = v
	e.touch(GroupContrast)
}

// SetLevels updates the levels group.
func (e *Engine) SetLevels(v Levels) {
	e.state.Levels = v
	e.touch(GroupLevels)
}

// SetCDL updates the CDL group.
func (e *Engine) SetCDL(v CDL) {
	e.state.CDL = v
	e.touch(GroupCDL)
}

// SetLiftGammaGain updates the lift/gamma/gain group.
func (e *Engine) SetLiftGammaGain(v LiftGammaGain) {
	e.state.LiftGammaGain = v
	e.touch(GroupLiftGammaGain)
}

// SetToneCurve updates the tone curve. The input points are copied; the
// curve table re-uploads only when the point data changed.
func (e *Engine) SetToneCurve(v ToneCurve) {
	if !curvePointsEqual(e.state.ToneCurve.Points, v.Points) {
		e.content.add(GroupToneCurve)
	}
	e.state.ToneCurve.Enabled = v.Enabled
	e.state.ToneCurve.Points = append([]CurvePoint(nil), v.Points...)
	e.touch(GroupToneCurve)
}

// SetHSL updates the per-band HSL group.
func (e *Engine) SetHSL(v HSL) {
	e.state.HSL = v
	e.touch(GroupHSL)
}

// SetSaturation updates the saturation group.
func (e *Engine) SetSaturation(v Saturation) {
	e.state.Saturation = v
	e.touch(GroupSaturation)
}

// SetSplitTone updates the split-toning group.
func (e *Engine) SetSplitTone(v SplitTone) {
	e.state.SplitTone = v
	e.touch(GroupSplitTone)
}

// SetShadowsHighlights updates the shadows/highlights group. Its radius
// feeds the edge-filter scratch shared with Clarity.
func (e *Engine) SetShadowsHighlights(v ShadowsHighlights) {
	e.state.ShadowsHighlights = v
	e.touch(GroupShadowsHighlights)
}

// SetClarity updates the clarity group. Its radius feeds the edge-filter
// scratch shared with ShadowsHighlights.
func (e *Engine) SetClarity(v Clarity) {
	e.state.Clarity = v
	e.touch(GroupClarity)
}

// SetTexture updates the texture group.
func (e *Engine) SetTexture(v Texture) {
	e.state.Texture = v
	e.touch(GroupTexture)
}

// SetDehaze updates the dehaze group.
func (e *Engine) SetDehaze(v Dehaze) {
	e.state.Dehaze = v
	e.touch(GroupDehaze)
}

// SetSharpen updates the sharpen group.
func (e *Engine) SetSharpen(v Sharpen) {
	e.state.Sharpen = v
	e.touch(GroupSharpen)
}

// SetNoiseReduction updates the noise-reduction group.
func (e *Engine) SetNoiseReduction(v NoiseReduction) {
	e.state.NoiseReduction = v
	e.touch(GroupNoiseReduction)
}

// SetGrain updates the grain group.
func (e *Engine) SetGrain(v Grain) {
	e.state.Grain = v
	e.touch(GroupGrain)
}

// SetVignette updates the vignette group.
func (e *Engine) SetVignette(v Vignette) {
	e.state.Vignette = v
	e.touch(GroupVignette)
}

// SetChromaticAberration updates the chromatic-aberration group.
func (e *Engine) SetChromaticAberration(v ChromaticAberration) {
	e.state.ChromaticAberration = v
	e.touch(GroupChromaticAberration)
}

// SetLensDistortion updates the lens-distortion group.
func (e *Engine) SetLensDistortion(v LensDistortion) {
	e.state.LensDistortion = v
	e.touch(GroupLensDistortion)
}

// SetBloom updates the bloom group.
func (e *Engine) SetBloom(v Bloom) {
	e.state.Bloom = v
	e.touch(GroupBloom)
}

// SetFade updates the fade group.
func (e *Engine) SetFade(v Fade) {
	e.state.Fade = v
	e.touch(GroupFade)
}

// SetInvert updates the invert group.
func (e *Engine) SetInvert(v Invert) {
	e.state.Invert = v
	e.touch(GroupInvert)
}

// SetMonochrome updates the monochrome group.
func (e *Engine) SetMonochrome(v Monochrome) {
	e.state.Monochrome = v
	e.touch(GroupMonochrome)
}

// SetToneMap updates the tone-mapping group.
func (e *Engine) SetToneMap(v ToneMap) {
	e.state.ToneMap = v
	e.touch(GroupToneMap)
}

// SetBackgroundPattern updates the background pattern. State comparison
// and uniforms use the normalized colors, not the raw hex strings.
func (e *Engine) SetBackgroundPattern(v BackgroundPattern) {
	e.state.BackgroundPattern = v
	e.touch(GroupBackgroundPattern)
}

// SetRadialMask updates the radial mask group.
func (e *Engine) SetRadialMask(v RadialMask) {
	e.state.RadialMask = v
	e.touch(GroupRadialMask)
}

// SetLinearMask updates the linear mask group.
func (e *Engine) SetLinearMask(v LinearMask) {
	e.state.LinearMask = v
	e.touch(GroupLinearMask)
}

// SetLumaMask updates the luma mask group.
func (e *Engine) SetLumaMask(v LumaMask) {
	e.state.LumaMask = v
	e.touch(GroupLumaMask)
}

// SetLUT updates the LUT group. Cube content changes are detected by
// pointer identity.
func (e *Engine) SetLUT(v LUT) {
	if e.state.LUT.Cube != v.Cube {
		e.content.add(GroupLUT)
	}
	e.state.LUT = v
	e.touch(GroupLUT)
}

// SetWatermark updates the watermark group. Image content changes are
// detected by pointer identity.
func (e *Engine) SetWatermark(v Watermark) {
	if e.state.Watermark.Image != v.Image {
		e.content.add(GroupWatermark)
	}
	e.state.Watermark = v
	e.touch(GroupWatermark)
}

// SetFalseColor updates the false-color group. Palette content changes
// are detected by pointer identity.
func (e *Engine) SetFalseColor(v FalseColor) {
	if e.state.FalseColor.Palette != v.Palette {
		e.content.add(GroupFalseColor)
	}
	e.state.FalseColor = v
	e.touch(GroupFalseColor)
}

// touch sanitizes a freshly stored group and marks it dirty.
func (e *Engine) touch(g Group) {
	sanitizeGroup(g, &e.state)
	e.dirty.add(g)
}
