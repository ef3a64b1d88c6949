package grade

// appendUniform appends group g's uniform block to dst and returns the
// extended slice. Block layout per group: the derived active flag first,
// parameters in declaration order after. The grading shader mirrors this
// layout; see backend/wgpu.
func appendUniform(g Group, s *State, dst []float32) []float32 {
	switch g {
	case GroupGeometry:
		v := s.Geometry
		dst = append(dst, b2f(v.Enabled), f32(v.Rotation), b2f(v.FlipH), b2f(v.FlipV))
		dst = append(dst, f32(v.Crop[0]), f32(v.Crop[1]), f32(v.Crop[2]), f32(v.Crop[3]))
	case GroupWhiteBalance:
		v := s.WhiteBalance
		dst = append(dst, b2f(v.Enabled), f32(v.Temperature), f32(v.Tint))
	case GroupExposure:
		v := s.Exposure
		dst = append(dst, b2f(v.Enabled), f32(v.EV))
	case GroupContrast:
		v := s.Contrast
		dst = append(dst, b2f(v.Enabled), f32(v.Amount), f32(v.Pivot))
	case GroupLevels:
		v := s.Levels
		dst = append(dst, b2f(v.Enabled), f32(v.Black), f32(v.White), f32(v.Gamma))
	case GroupCDL:
		v := s.CDL
		dst = append(dst, b2f(v.Enabled))
		dst = appendTriple(dst, v.Slope)
		dst = appendTriple(dst, v.Offset)
		dst = appendTriple(dst, v.Power)
		dst = append(dst, f32(v.Saturation))
	case GroupLiftGammaGain:
		v := s.LiftGammaGain
		dst = append(dst, b2f(v.Enabled))
		dst = appendTriple(dst, v.Lift)
		dst = appendTriple(dst, v.Gamma)
		dst = appendTriple(dst, v.Gain)
	case GroupToneCurve:
		v := s.ToneCurve
		dst = append(dst, b2f(v.Active()))
	case GroupHSL:
		v := s.HSL
		dst = append(dst, b2f(v.Enabled))
		dst = appendOctet(dst, v.Hue)
		dst = appendOctet(dst, v.Sat)
		dst = appendOctet(dst, v.Lum)
	case GroupSaturation:
		v := s.Saturation
		dst = append(dst, b2f(v.Enabled), f32(v.Amount), f32(v.Vibrance))
	case GroupSplitTone:
		v := s.SplitTone
		dst = append(dst, b2f(v.Enabled), f32(v.ShadowHue), f32(v.ShadowSat),
			f32(v.HighlightHue), f32(v.HighlightSat), f32(v.Balance))
	case GroupShadowsHighlights:
		v := s.ShadowsHighlights
		dst = append(dst, b2f(v.Enabled), f32(v.Shadows), f32(v.Highlights), f32(v.Radius))
	case GroupClarity:
		v := s.Clarity
		dst = append(dst, b2f(v.Enabled), f32(v.Amount), f32(v.Radius))
	case GroupTexture:
		v := s.Texture
		dst = append(dst, b2f(v.Enabled), f32(v.Amount))
	case GroupDehaze:
		v := s.Dehaze
		dst = append(dst, b2f(v.Enabled), f32(v.Amount))
	case GroupSharpen:
		v := s.Sharpen
		dst = append(dst, b2f(v.Enabled), f32(v.Amount), f32(v.Radius), f32(v.Threshold))
	case GroupNoiseReduction:
		v := s.NoiseReduction
		dst = append(dst, b2f(v.Enabled), f32(v.Luma), f32(v.Chroma), f32(v.Detail))
	case GroupGrain:
		v := s.Grain
		dst = append(dst, b2f(v.Enabled), f32(v.Amount), f32(v.Size), f32(v.Roughness), float32(v.Seed))
	case GroupVignette:
		v := s.Vignette
		dst = append(dst, b2f(v.Enabled), f32(v.Amount), f32(v.Midpoint), f32(v.Roundness), f32(v.Feather))
	case GroupChromaticAberration:
		v := s.ChromaticAberration
		dst = append(dst, b2f(v.Enabled), f32(v.Amount))
	case GroupLensDistortion:
		v := s.LensDistortion
		dst = append(dst, b2f(v.Enabled), f32(v.K1), f32(v.K2), f32(v.Scale))
	case GroupBloom:
		v := s.Bloom
		dst = append(dst, b2f(v.Enabled), f32(v.Amount), f32(v.Radius), f32(v.Threshold))
	case GroupFade:
		v := s.Fade
		dst = append(dst, b2f(v.Enabled), f32(v.Amount))
	case GroupInvert:
		dst = append(dst, b2f(s.Invert.Enabled))
	case GroupMonochrome:
		v := s.Monochrome
		dst = append(dst, b2f(v.Enabled), f32(v.MixR), f32(v.MixG), f32(v.MixB))
	case GroupToneMap:
		v := s.ToneMap
		dst = append(dst, b2f(v.Enabled), float32(v.Operator), f32(v.Exposure), f32(v.WhitePoint))
	case GroupBackgroundPattern:
		v := s.BackgroundPattern
		c1, c2 := v.Colors()
		dst = append(dst, b2f(v.Active()))
		dst = appendColor(dst, c1)
		dst = appendColor(dst, c2)
		dst = append(dst, f32(v.Size))
	case GroupRadialMask:
		v := s.RadialMask
		dst = append(dst, b2f(v.Enabled), f32(v.CX), f32(v.CY), f32(v.RX), f32(v.RY),
			f32(v.Feather), b2f(v.Invert))
	case GroupLinearMask:
		v := s.LinearMask
		dst = append(dst, b2f(v.Enabled), f32(v.X0), f32(v.Y0), f32(v.X1), f32(v.Y1), f32(v.Range))
	case GroupLumaMask:
		v := s.LumaMask
		dst = append(dst, b2f(v.Enabled), f32(v.Low), f32(v.High), f32(v.Softness))
	case GroupLUT:
		v := s.LUT
		active := v.Enabled && v.Cube != nil
		dst = append(dst, b2f(active), f32(v.Strength))
	case GroupWatermark:
		v := s.Watermark
		active := v.Enabled && v.Image != nil
		dst = append(dst, b2f(active), f32(v.Opacity), float32(v.Anchor), f32(v.Margin))
	case GroupFalseColor:
		v := s.FalseColor
		active := v.Enabled && v.Palette != nil
		dst = append(dst, b2f(active))
	}
	return dst
}

func f32(v float64) float32 { return float32(v) }

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func appendTriple(dst []float32, v [3]float64) []float32 {
	return append(dst, f32(v[0]), f32(v[1]), f32(v[2]))
}

func appendOctet(dst []float32, v [8]float64) []float32 {
	for _, x := range v {
		dst = append(dst, f32(x))
	}
	return dst
}

func appendColor(dst []float32, c RGBA) []float32 {
	return append(dst, f32(c.R), f32(c.G), f32(c.B), f32(c.A))
}
