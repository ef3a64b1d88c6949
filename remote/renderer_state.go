package remote

import "github.com/gogpu/grade"

// Setters. Each mirrors the matching grade.Engine group: the value
// lands in the local pending delta and the cached state copy, then the
// call returns — it never blocks and never itself sends a message.
// Repeated writes to one group before a flush keep only the latest
// value. After Close every setter is a silent no-op. Values travel raw;
// the engine sanitizes them on the execution side.

// set stores one group's freshly written value and queues it for the
// next flush.
func (r *Renderer) set(g grade.Group, write func(*grade.State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	write(r.cache)
	r.patch.Adopt(g, r.cache)
}

// SetGeometry updates the geometry group.
func (r *Renderer) SetGeometry(v grade.Geometry) {
	r.set(grade.GroupGeometry, func(s *grade.State) { s.Geometry = v })
}

// SetWhiteBalance updates the white-balance group.
func (r *Renderer) SetWhiteBalance(v grade.WhiteBalance) {
	r.set(grade.GroupWhiteBalance, func(s *grade.State) { s.WhiteBalance = v })
}

// SetExposure updates the exposure group.
func (r *Renderer) SetExposure(v grade.Exposure) {
	r.set(grade.GroupExposure, func(s *grade.State) { s.Exposure = v })
}

// SetContrast updates the contrast group.
func (r *Renderer) SetContrast(v grade.Contrast) {
	r.set(grade.GroupContrast, func(s *grade.State) { s.Contrast = v })
}

// SetLevels updates the levels group.
func (r *Renderer) SetLevels(v grade.Levels) {
	r.set(grade.GroupLevels, func(s *grade.State) { s.Levels = v })
}

// SetCDL updates the CDL group.
func (r *Renderer) SetCDL(v grade.CDL) {
	r.set(grade.GroupCDL, func(s *grade.State) { s.CDL = v })
}

// SetLiftGammaGain updates the lift/gamma/gain group.
func (r *Renderer) SetLiftGammaGain(v grade.LiftGammaGain) {
	r.set(grade.GroupLiftGammaGain, func(s *grade.State) { s.LiftGammaGain = v })
}

// SetToneCurve updates the tone curve. The input points are copied, so
// the caller may keep mutating its slice.
func (r *Renderer) SetToneCurve(v grade.ToneCurve) {
	v.Points = append([]grade.CurvePoint(nil), v.Points...)
	r.set(grade.GroupToneCurve, func(s *grade.State) { s.ToneCurve = v })
}

// SetHSL updates the per-band HSL group.
func (r *Renderer) SetHSL(v grade.HSL) {
	r.set(grade.GroupHSL, func(s *grade.State) { s.HSL = v })
}

// SetSaturation updates the saturation group.
func (r *Renderer) SetSaturation(v grade.Saturation) {
	r.set(grade.GroupSaturation, func(s *grade.State) { s.Saturation = v })
}

// SetSplitTone updates the split-toning group.
func (r *Renderer) SetSplitTone(v grade.SplitTone) {
	r.set(grade.GroupSplitTone, func(s *grade.State) { s.SplitTone = v })
}

// SetShadowsHighlights updates the shadows/highlights group.
func (r *Renderer) SetShadowsHighlights(v grade.ShadowsHighlights) {
	r.set(grade.GroupShadowsHighlights, func(s *grade.State) { s.ShadowsHighlights = v })
}

// SetClarity updates the clarity group.
func (r *Renderer) SetClarity(v grade.Clarity) {
	r.set(grade.GroupClarity, func(s *grade.State) { s.Clarity = v })
}

// SetTexture updates the texture group.
func (r *Renderer) SetTexture(v grade.Texture) {
	r.set(grade.GroupTexture, func(s *grade.State) { s.Texture = v })
}

// SetDehaze updates the dehaze group.
func (r *Renderer) SetDehaze(v grade.Dehaze) {
	r.set(grade.GroupDehaze, func(s *grade.State) { s.Dehaze = v })
}

// SetSharpen updates the sharpen group.
func (r *Renderer) SetSharpen(v grade.Sharpen) {
	r.set(grade.GroupSharpen, func(s *grade.State) { s.Sharpen = v })
}

// SetNoiseReduction updates the noise-reduction group.
func (r *Renderer) SetNoiseReduction(v grade.NoiseReduction) {
	r.set(grade.GroupNoiseReduction, func(s *grade.State) { s.NoiseReduction = v })
}

// SetGrain updates the film-grain group.
func (r *Renderer) SetGrain(v grade.Grain) {
	r.set(grade.GroupGrain, func(s *grade.State) { s.Grain = v })
}

// SetVignette updates the vignette group.
func (r *Renderer) SetVignette(v grade.Vignette) {
	r.set(grade.GroupVignette, func(s *grade.State) { s.Vignette = v })
}

// SetChromaticAberration updates the chromatic-aberration group.
func (r *Renderer) SetChromaticAberration(v grade.ChromaticAberration) {
	r.set(grade.GroupChromaticAberration, func(s *grade.State) { s.ChromaticAberration = v })
}

// SetLensDistortion updates the lens-distortion group.
func (r *Renderer) SetLensDistortion(v grade.LensDistortion) {
	r.set(grade.GroupLensDistortion, func(s *grade.State) { s.LensDistortion = v })
}

// SetBloom updates the bloom group.
func (r *Renderer) SetBloom(v grade.Bloom) {
	r.set(grade.GroupBloom, func(s *grade.State) { s.Bloom = v })
}

// SetFade updates the fade group.
func (r *Renderer) SetFade(v grade.Fade) {
	r.set(grade.GroupFade, func(s *grade.State) { s.Fade = v })
}

// SetInvert updates the invert group.
func (r *Renderer) SetInvert(v grade.Invert) {
	r.set(grade.GroupInvert, func(s *grade.State) { s.Invert = v })
}

// SetMonochrome updates the monochrome group.
func (r *Renderer) SetMonochrome(v grade.Monochrome) {
	r.set(grade.GroupMonochrome, func(s *grade.State) { s.Monochrome = v })
}

// SetToneMap updates the tone-mapping group.
func (r *Renderer) SetToneMap(v grade.ToneMap) {
	r.set(grade.GroupToneMap, func(s *grade.State) { s.ToneMap = v })
}

// SetBackgroundPattern updates the background-pattern group.
func (r *Renderer) SetBackgroundPattern(v grade.BackgroundPattern) {
	r.set(grade.GroupBackgroundPattern, func(s *grade.State) { s.BackgroundPattern = v })
}

// SetRadialMask updates the radial-mask group.
func (r *Renderer) SetRadialMask(v grade.RadialMask) {
	r.set(grade.GroupRadialMask, func(s *grade.State) { s.RadialMask = v })
}

// SetLinearMask updates the linear-mask group.
func (r *Renderer) SetLinearMask(v grade.LinearMask) {
	r.set(grade.GroupLinearMask, func(s *grade.State) { s.LinearMask = v })
}

// SetLumaMask updates the luma-mask group.
func (r *Renderer) SetLumaMask(v grade.LumaMask) {
	r.set(grade.GroupLumaMask, func(s *grade.State) { s.LumaMask = v })
}

// SetLUT updates the LUT group.
func (r *Renderer) SetLUT(v grade.LUT) {
	r.set(grade.GroupLUT, func(s *grade.State) { s.LUT = v })
}

// SetWatermark updates the watermark group.
func (r *Renderer) SetWatermark(v grade.Watermark) {
	r.set(grade.GroupWatermark, func(s *grade.State) { s.Watermark = v })
}

// SetFalseColor updates the false-color group.
func (r *Renderer) SetFalseColor(v grade.FalseColor) {
	r.set(grade.GroupFalseColor, func(s *grade.State) { s.FalseColor = v })
}

// ApplyState replaces the whole cached state and queues every group for
// the next flush, as one batch. Used to apply a loaded preset.
func (r *Renderer) ApplyState(s *grade.State) {
	if s == nil {
		return
	}
	in := s.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.cache = in
	r.patch.Merge(grade.FullPatch(in))
}

// Getters. Each reads the locally cached copy, so UI code reads back
// exactly what it set without a channel round trip. Returned values are
// independent copies — tone-curve points are duplicated; resource
// payloads are shared because they are immutable once handed over.

// State returns an independent copy of the complete cached state.
func (r *Renderer) State() *grade.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Clone()
}

// Geometry returns the cached geometry group.
func (r *Renderer) Geometry() grade.Geometry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Geometry
}

// WhiteBalance returns the cached white-balance group.
func (r *Renderer) WhiteBalance() grade.WhiteBalance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.WhiteBalance
}

// Exposure returns the cached exposure group.
func (r *Renderer) Exposure() grade.Exposure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Exposure
}

// Contrast returns the cached contrast group.
func (r *Renderer) Contrast() grade.Contrast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Contrast
}

// Levels returns the cached levels group.
func (r *Renderer) Levels() grade.Levels {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Levels
}

// CDL returns the cached CDL group.
func (r *Renderer) CDL() grade.CDL {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.CDL
}

// LiftGammaGain returns the cached lift/gamma/gain group.
func (r *Renderer) LiftGammaGain() grade.LiftGammaGain {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.LiftGammaGain
}

// ToneCurve returns the cached tone curve with its points duplicated.
func (r *Renderer) ToneCurve() grade.ToneCurve {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.cache.ToneCurve
	v.Points = append([]grade.CurvePoint(nil), v.Points...)
	return v
}

// HSL returns the cached HSL group.
func (r *Renderer) HSL() grade.HSL {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.HSL
}

// Saturation returns the cached saturation group.
func (r *Renderer) Saturation() grade.Saturation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Saturation
}

// SplitTone returns the cached split-toning group.
func (r *Renderer) SplitTone() grade.SplitTone {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.SplitTone
}

// ShadowsHighlights returns the cached shadows/highlights group.
func (r *Renderer) ShadowsHighlights() grade.ShadowsHighlights {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.ShadowsHighlights
}

// Clarity returns the cached clarity group.
func (r *Renderer) Clarity() grade.Clarity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Clarity
}

// Texture returns the cached texture group.
func (r *Renderer) Texture() grade.Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Texture
}

// Dehaze returns the cached dehaze group.
func (r *Renderer) Dehaze() grade.Dehaze {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Dehaze
}

// Sharpen returns the cached sharpen group.
func (r *Renderer) Sharpen() grade.Sharpen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Sharpen
}

// NoiseReduction returns the cached noise-reduction group.
func (r *Renderer) NoiseReduction() grade.NoiseReduction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.NoiseReduction
}

// Grain returns the cached film-grain group.
func (r *Renderer) Grain() grade.Grain {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Grain
}

// Vignette returns the cached vignette group.
func (r *Renderer) Vignette() grade.Vignette {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Vignette
}

// ChromaticAberration returns the cached chromatic-aberration group.
func (r *Renderer) ChromaticAberration() grade.ChromaticAberration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.ChromaticAberration
}

// LensDistortion returns the cached lens-distortion group.
func (r *Renderer) LensDistortion() grade.LensDistortion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.LensDistortion
}

// Bloom returns the cached bloom group.
func (r *Renderer) Bloom() grade.Bloom {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Bloom
}

// Fade returns the cached fade group.
func (r *Renderer) Fade() grade.Fade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Fade
}

// Invert returns the cached invert group.
func (r *Renderer) Invert() grade.Invert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Invert
}

// Monochrome returns the cached monochrome group.
func (r *Renderer) Monochrome() grade.Monochrome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Monochrome
}

// ToneMap returns the cached tone-mapping group.
func (r *Renderer) ToneMap() grade.ToneMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.ToneMap
}

// BackgroundPattern returns the cached background-pattern group.
func (r *Renderer) BackgroundPattern() grade.BackgroundPattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.BackgroundPattern
}

// RadialMask returns the cached radial-mask group.
func (r *Renderer) RadialMask() grade.RadialMask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.RadialMask
}

// LinearMask returns the cached linear-mask group.
func (r *Renderer) LinearMask() grade.LinearMask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.LinearMask
}

// LumaMask returns the cached luma-mask group.
func (r *Renderer) LumaMask() grade.LumaMask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.LumaMask
}

// LUT returns the cached LUT group.
func (r *Renderer) LUT() grade.LUT {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.LUT
}

// Watermark returns the cached watermark group.
func (r *Renderer) Watermark() grade.Watermark {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Watermark
}

// FalseColor returns the cached false-color group.
func (r *Renderer) FalseColor() grade.FalseColor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.FalseColor
}
