package grade

// groupEqual reports whether group g is observably equal between two
// states. Most groups compare field-wise. Derived-enabled groups
// (ToneCurve, BackgroundPattern) compare their post-update derived
// values instead of raw input, so two inputs with the same observable
// effect never count as a change. Resource payloads compare by pointer
// identity: a replaced payload is a change, an equal pointer is not.
func groupEqual(g Group, a, b *State) bool {
	switch g {
	case GroupGeometry:
		return a.Geometry == b.Geometry
	case GroupWhiteBalance:
		return a.WhiteBalance == b.WhiteBalance
	case GroupExposure:
		return a.Exposure == b.Exposure
	case GroupContrast:
		return a.Contrast == b.Contrast
	case GroupLevels:
		return a.Levels == b.Levels
	case GroupCDL:
		return a.CDL == b.CDL
	case GroupLiftGammaGain:
		return a.LiftGammaGain == b.LiftGammaGain
	case GroupToneCurve:
		return toneCurveEqual(a.ToneCurve, b.ToneCurve)
	case GroupHSL:
		return a.HSL == b.HSL
	case GroupSaturation:
		return a.Saturation == b.Saturation
	case GroupSplitTone:
		return a.SplitTone == b.SplitTone
	case GroupShadowsHighlights:
		return a.ShadowsHighlights == b.ShadowsHighlights
	case GroupClarity:
		return a.Clarity == b.Clarity
	case GroupTexture:
		return a.Texture == b.Texture
	case GroupDehaze:
		return a.Dehaze == b.Dehaze
	case GroupSharpen:
		return a.Sharpen == b.Sharpen
	case GroupNoiseReduction:
		return a.NoiseReduction == b.NoiseReduction
	case GroupGrain:
		return a.Grain == b.Grain
	case GroupVignette:
		return a.Vignette == b.Vignette
	case GroupChromaticAberration:
		return a.ChromaticAberration == b.ChromaticAberration
	case GroupLensDistortion:
		return a.LensDistortion == b.LensDistortion
	case GroupBloom:
		return a.Bloom == b.Bloom
	case GroupFade:
		return a.Fade == b.Fade
	case GroupInvert:
		return a.Invert == b.Invert
	case GroupMonochrome:
		return a.Monochrome == b.Monochrome
	case GroupToneMap:
		return a.ToneMap == b.ToneMap
	case GroupBackgroundPattern:
		return backgroundEqual(a.BackgroundPattern, b.BackgroundPattern)
	case GroupRadialMask:
		return a.RadialMask == b.RadialMask
	case GroupLinearMask:
		return a.LinearMask == b.LinearMask
	case GroupLumaMask:
		return a.LumaMask == b.LumaMask
	case GroupLUT:
		return a.LUT == b.LUT
	case GroupWatermark:
		return a.Watermark == b.Watermark
	case GroupFalseColor:
		return a.FalseColor == b.FalseColor
	}
	return true
}

// toneCurveEqual compares the derived curve value: two inactive curves
// are equal regardless of stored points, because neither affects output.
func toneCurveEqual(a, b ToneCurve) bool {
	if a.Active() != b.Active() {
		return false
	}
	if !a.Active() {
		return true
	}
	return curvePointsEqual(a.Points, b.Points)
}

func curvePointsEqual(a, b []CurvePoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// backgroundEqual compares the derived pattern value: activity, the
// normalized colors and the cell size. Two hex spellings of one color
// ("#fff" vs "#ffffff") compare equal; two inactive patterns compare
// equal regardless of stored colors.
func backgroundEqual(a, b BackgroundPattern) bool {
	if a.Active() != b.Active() {
		return false
	}
	if !a.Active() {
		return true
	}
	a1, a2 := a.Colors()
	b1, b2 := b.Colors()
	return a1 == b1 && a2 == b2 && a.Size == b.Size
}

// copyGroup transfers group g from src to dst. Tone-curve points are
// deep-copied; resource payload pointers transfer as-is.
func copyGroup(g Group, dst, src *State) {
	switch g {
	case GroupGeometry:
		dst.Geometry = src.Geometry
	case GroupWhiteBalance:
		dst.WhiteBalance = src.WhiteBalance
	case GroupExposure:
		dst.Exposure = src.Exposure
	case GroupContrast:
		dst.Contrast = src.Contrast
	case GroupLevels:
		dst.Levels = src.Levels
	case GroupCDL:
		dst.CDL = src.CDL
	case GroupLiftGammaGain:
		dst.LiftGammaGain = src.LiftGammaGain
	case GroupToneCurve:
		dst.ToneCurve.Enabled = src.ToneCurve.Enabled
		dst.ToneCurve.Points = append([]CurvePoint(nil), src.ToneCurve.Points...)
	case GroupHSL:
		dst.HSL = src.HSL
	case GroupSaturation:
		dst.Saturation = src.Saturation
	case GroupSplitTone:
		dst.SplitTone = src.SplitTone
	case GroupShadowsHighlights:
		dst.ShadowsHighlights = src.ShadowsHighlights
	case GroupClarity:
		dst.Clarity = src.Clarity
	case GroupTexture:
		dst.Texture = src.Texture
	case GroupDehaze:
		dst.Dehaze = src.Dehaze
	case GroupSharpen:
		dst.Sharpen = src.Sharpen
	case GroupNoiseReduction:
		dst.NoiseReduction = src.NoiseReduction
	case GroupGrain:
		dst.Grain = src.Grain
	case GroupVignette:
		dst.Vignette = src.Vignette
	case GroupChromaticAberration:
		dst.ChromaticAberration = src.ChromaticAberration
	case GroupLensDistortion:
		dst.LensDistortion = src.LensDistortion
	case GroupBloom:
		dst.Bloom = src.Bloom
	case GroupFade:
		dst.Fade = src.Fade
	case GroupInvert:
		dst.Invert = src.Invert
	case GroupMonochrome:
		dst.Monochrome = src.Monochrome
	case GroupToneMap:
		dst.ToneMap = src.ToneMap
	case GroupBackgroundPattern:
		dst.BackgroundPattern = src.BackgroundPattern
	case GroupRadialMask:
		dst.RadialMask = src.RadialMask
	case GroupLinearMask:
		dst.LinearMask = src.LinearMask
	case GroupLumaMask:
		dst.LumaMask = src.LumaMask
	case GroupLUT:
		dst.LUT = src.LUT
	case GroupWatermark:
		dst.Watermark = src.Watermark
	case GroupFalseColor:
		dst.FalseColor = src.FalseColor
	}
}

// sanitizeGroup normalizes group g's numeric fields in place: non-finite
// values become zero, or a small positive epsilon for divisor fields.
func sanitizeGroup(g Group, s *State) {
	switch g {
	case GroupGeometry:
		s.Geometry.Rotation = sanitize(s.Geometry.Rotation)
		s.Geometry.Crop = sanitize4(s.Geometry.Crop)
	case GroupWhiteBalance:
		s.WhiteBalance.Temperature = sanitize(s.WhiteBalance.Temperature)
		s.WhiteBalance.Tint = sanitize(s.WhiteBalance.Tint)
	case GroupExposure:
		s.Exposure.EV = sanitize(s.Exposure.EV)
	case GroupContrast:
		s.Contrast.Amount = sanitize(s.Contrast.Amount)
		s.Contrast.Pivot = sanitizeDivisor(s.Contrast.Pivot)
	case GroupLevels:
		s.Levels.Black = sanitize(s.Levels.Black)
		s.Levels.White = sanitize(s.Levels.White)
		s.Levels.Gamma = sanitizeDivisor(s.Levels.Gamma)
	case GroupCDL:
		s.CDL.Slope = sanitize3(s.CDL.Slope)
		s.CDL.Offset = sanitize3(s.CDL.Offset)
		s.CDL.Power = sanitize3(s.CDL.Power)
		s.CDL.Saturation = sanitize(s.CDL.Saturation)
	case GroupLiftGammaGain:
		s.LiftGammaGain.Lift = sanitize3(s.LiftGammaGain.Lift)
		s.LiftGammaGain.Gamma = sanitize3(s.LiftGammaGain.Gamma)
		s.LiftGammaGain.Gain = sanitize3(s.LiftGammaGain.Gain)
	case GroupToneCurve:
		s.ToneCurve.Points = sanitizePoints(s.ToneCurve.Points)
	case GroupHSL:
		s.HSL.Hue = sanitize8(s.HSL.Hue)
		s.HSL.Sat = sanitize8(s.HSL.Sat)
		s.HSL.Lum = sanitize8(s.HSL.Lum)
	case GroupSaturation:
		s.Saturation.Amount = sanitize(s.Saturation.Amount)
		s.Saturation.Vibrance = sanitize(s.Saturation.Vibrance)
	case GroupSplitTone:
		s.SplitTone.ShadowHue = sanitize(s.SplitTone.ShadowHue)
		s.SplitTone.ShadowSat = sanitize(s.SplitTone.ShadowSat)
		s.SplitTone.HighlightHue = sanitize(s.SplitTone.HighlightHue)
		s.SplitTone.HighlightSat = sanitize(s.SplitTone.HighlightSat)
		s.SplitTone.Balance = sanitize(s.SplitTone.Balance)
	case GroupShadowsHighlights:
		s.ShadowsHighlights.Shadows = sanitize(s.ShadowsHighlights.Shadows)
		s.ShadowsHighlights.Highlights = sanitize(s.ShadowsHighlights.Highlights)
		s.ShadowsHighlights.Radius = sanitize(s.ShadowsHighlights.Radius)
	case GroupClarity:
		s.Clarity.Amount = sanitize(s.Clarity.Amount)
		s.Clarity.Radius = sanitize(s.Clarity.Radius)
	case GroupTexture:
		s.Texture.Amount = sanitize(s.Texture.Amount)
	case GroupDehaze:
		s.Dehaze.Amount = sanitize(s.Dehaze.Amount)
	case GroupSharpen:
		s.Sharpen.Amount = sanitize(s.Sharpen.Amount)
		s.Sharpen.Radius = sanitize(s.Sharpen.Radius)
		s.Sharpen.Threshold = sanitize(s.Sharpen.Threshold)
	case GroupNoiseReduction:
		s.NoiseReduction.Luma = sanitize(s.NoiseReduction.Luma)
		s.NoiseReduction.Chroma = sanitize(s.NoiseReduction.Chroma)
		s.NoiseReduction.Detail = sanitize(s.NoiseReduction.Detail)
	case GroupGrain:
		s.Grain.Amount = sanitize(s.Grain.Amount)
		s.Grain.Size = sanitize(s.Grain.Size)
		s.Grain.Roughness = sanitize(s.Grain.Roughness)
	case GroupVignette:
		s.Vignette.Amount = sanitize(s.Vignette.Amount)
		s.Vignette.Midpoint = sanitize(s.Vignette.Midpoint)
		s.Vignette.Roundness = sanitize(s.Vignette.Roundness)
		s.Vignette.Feather = sanitize(s.Vignette.Feather)
	case GroupChromaticAberration:
		s.ChromaticAberration.Amount = sanitize(s.ChromaticAberration.Amount)
	case GroupLensDistortion:
		s.LensDistortion.K1 = sanitize(s.LensDistortion.K1)
		s.LensDistortion.K2 = sanitize(s.LensDistortion.K2)
		s.LensDistortion.Scale = sanitizeDivisor(s.LensDistortion.Scale)
	case GroupBloom:
		s.Bloom.Amount = sanitize(s.Bloom.Amount)
		s.Bloom.Radius = sanitize(s.Bloom.Radius)
		s.Bloom.Threshold = sanitize(s.Bloom.Threshold)
	case GroupFade:
		s.Fade.Amount = sanitize(s.Fade.Amount)
	case GroupInvert:
		// no numeric fields
	case GroupMonochrome:
		s.Monochrome.MixR = sanitize(s.Monochrome.MixR)
		s.Monochrome.MixG = sanitize(s.Monochrome.MixG)
		s.Monochrome.MixB = sanitize(s.Monochrome.MixB)
	case GroupToneMap:
		s.ToneMap.Exposure = sanitize(s.ToneMap.Exposure)
		s.ToneMap.WhitePoint = sanitizeDivisor(s.ToneMap.WhitePoint)
	case GroupBackgroundPattern:
		s.BackgroundPattern.Size = sanitize(s.BackgroundPattern.Size)
	case GroupRadialMask:
		s.RadialMask.CX = sanitize(s.RadialMask.CX)
		s.RadialMask.CY = sanitize(s.RadialMask.CY)
		s.RadialMask.RX = sanitizeDivisor(s.RadialMask.RX)
		s.RadialMask.RY = sanitizeDivisor(s.RadialMask.RY)
		s.RadialMask.Feather = sanitize(s.RadialMask.Feather)
	case GroupLinearMask:
		s.LinearMask.X0 = sanitize(s.LinearMask.X0)
		s.LinearMask.Y0 = sanitize(s.LinearMask.Y0)
		s.LinearMask.X1 = sanitize(s.LinearMask.X1)
		s.LinearMask.Y1 = sanitize(s.LinearMask.Y1)
		s.LinearMask.Range = sanitize(s.LinearMask.Range)
	case GroupLumaMask:
		s.LumaMask.Low = sanitize(s.LumaMask.Low)
		s.LumaMask.High = sanitize(s.LumaMask.High)
		s.LumaMask.Softness = sanitize(s.LumaMask.Softness)
	case GroupLUT:
		s.LUT.Strength = sanitize(s.LUT.Strength)
	case GroupWatermark:
		s.Watermark.Opacity = sanitize(s.Watermark.Opacity)
		s.Watermark.Margin = sanitize(s.Watermark.Margin)
	case GroupFalseColor:
		// no numeric fields
	}
}

// resourceContentChanged reports whether a resource-bound group's
// payload changed between two states, separately from its toggle or
// scalar parameters. Payloads compare by pointer identity; the tone
// curve compares its point data.
func resourceContentChanged(g Group, old, new *State) bool {
	switch g {
	case GroupToneCurve:
		return !curvePointsEqual(old.ToneCurve.Points, new.ToneCurve.Points)
	case GroupLUT:
		return old.LUT.Cube != new.LUT.Cube
	case GroupWatermark:
		return old.Watermark.Image != new.Watermark.Image
	case GroupFalseColor:
		return old.FalseColor.Palette != new.FalseColor.Palette
	}
	return false
}
