package grade

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/gogpu/gputypes"
)

// stateCodecVersion tags the binary layout of State and Patch blobs.
// Bump on any layout change; decoders reject other versions.
const stateCodecVersion = 1

var (
	// ErrCodecVersion reports a blob written by an incompatible codec.
	ErrCodecVersion = errors.New("grade: unsupported state codec version")

	errBlobShort    = errors.New("grade: state blob truncated")
	errBlobTrailing = errors.New("grade: state blob has trailing data")
	errBlobGroups   = errors.New("grade: state blob carries unknown groups")
)

// MarshalBinary encodes the patch: codec version, group mask, then each
// carried group's fields in flush order, little-endian.
func (p *Patch) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 64+16*p.mask.count())
	buf = append(buf, stateCodecVersion)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.mask))
	for g := Group(0); g < groupCount; g++ {
		if p.mask.has(g) {
			buf = appendGroup(buf, g, &p.state)
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes a blob produced by MarshalBinary, replacing
// the patch's contents.
func (p *Patch) UnmarshalBinary(data []byte) error {
	d := &blobReader{buf: data}
	if v := d.u8(); d.err == nil && v != stateCodecVersion {
		return ErrCodecVersion
	}
	mask := groupSet(d.u64())
	if mask&^allGroups() != 0 {
		return errBlobGroups
	}
	var st State
	for g := Group(0); g < groupCount; g++ {
		if mask.has(g) {
			readGroup(d, g, &st)
		}
	}
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.buf) {
		return errBlobTrailing
	}
	p.mask = mask
	p.state = st
	return nil
}

// MarshalBinary encodes the full state as an all-groups patch blob.
func (s *State) MarshalBinary() ([]byte, error) {
	return FullPatch(s).MarshalBinary()
}

// UnmarshalBinary decodes a state blob. Groups absent from the blob
// keep their defaults, so blobs from builds with fewer groups load.
func (s *State) UnmarshalBinary(data []byte) error {
	var p Patch
	if err := p.UnmarshalBinary(data); err != nil {
		return err
	}
	out := DefaultState()
	for _, g := range p.Groups() {
		p.Peek(g, out)
	}
	*s = *out
	return nil
}

func appendGroup(b []byte, g Group, s *State) []byte {
	switch g {
	case GroupGeometry:
		v := s.Geometry
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Rotation)
		b = appendBool(b, v.FlipH)
		b = appendBool(b, v.FlipV)
		b = appendF64s(b, v.Crop[:])
	case GroupWhiteBalance:
		v := s.WhiteBalance
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Temperature)
		b = appendF64(b, v.Tint)
	case GroupExposure:
		v := s.Exposure
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.EV)
	case GroupContrast:
		v := s.Contrast
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
		b = appendF64(b, v.Pivot)
	case GroupLevels:
		v := s.Levels
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Black)
		b = appendF64(b, v.White)
		b = appendF64(b, v.Gamma)
	case GroupCDL:
		v := s.CDL
		b = appendBool(b, v.Enabled)
		b = appendF64s(b, v.Slope[:])
		b = appendF64s(b, v.Offset[:])
		b = appendF64s(b, v.Power[:])
		b = appendF64(b, v.Saturation)
	case GroupLiftGammaGain:
		v := s.LiftGammaGain
		b = appendBool(b, v.Enabled)
		b = appendF64s(b, v.Lift[:])
		b = appendF64s(b, v.Gamma[:])
		b = appendF64s(b, v.Gain[:])
	case GroupToneCurve:
		v := s.ToneCurve
		b = appendBool(b, v.Enabled)
		b = appendPoints(b, v.Points)
	case GroupHSL:
		v := s.HSL
		b = appendBool(b, v.Enabled)
		b = appendF64s(b, v.Hue[:])
		b = appendF64s(b, v.Sat[:])
		b = appendF64s(b, v.Lum[:])
	case GroupSaturation:
		v := s.Saturation
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
		b = appendF64(b, v.Vibrance)
	case GroupSplitTone:
		v := s.SplitTone
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.ShadowHue)
		b = appendF64(b, v.ShadowSat)
		b = appendF64(b, v.HighlightHue)
		b = appendF64(b, v.HighlightSat)
		b = appendF64(b, v.Balance)
	case GroupShadowsHighlights:
		v := s.ShadowsHighlights
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Shadows)
		b = appendF64(b, v.Highlights)
		b = appendF64(b, v.Radius)
	case GroupClarity:
		v := s.Clarity
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
		b = appendF64(b, v.Radius)
	case GroupTexture:
		v := s.Texture
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
	case GroupDehaze:
		v := s.Dehaze
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
	case GroupSharpen:
		v := s.Sharpen
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
		b = appendF64(b, v.Radius)
		b = appendF64(b, v.Threshold)
	case GroupNoiseReduction:
		v := s.NoiseReduction
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Luma)
		b = appendF64(b, v.Chroma)
		b = appendF64(b, v.Detail)
	case GroupGrain:
		v := s.Grain
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
		b = appendF64(b, v.Size)
		b = appendF64(b, v.Roughness)
		b = binary.LittleEndian.AppendUint32(b, v.Seed)
	case GroupVignette:
		v := s.Vignette
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
		b = appendF64(b, v.Midpoint)
		b = appendF64(b, v.Roundness)
		b = appendF64(b, v.Feather)
	case GroupChromaticAberration:
		v := s.ChromaticAberration
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
	case GroupLensDistortion:
		v := s.LensDistortion
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.K1)
		b = appendF64(b, v.K2)
		b = appendF64(b, v.Scale)
	case GroupBloom:
		v := s.Bloom
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
		b = appendF64(b, v.Radius)
		b = appendF64(b, v.Threshold)
	case GroupFade:
		v := s.Fade
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Amount)
	case GroupInvert:
		b = appendBool(b, s.Invert.Enabled)
	case GroupMonochrome:
		v := s.Monochrome
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.MixR)
		b = appendF64(b, v.MixG)
		b = appendF64(b, v.MixB)
	case GroupToneMap:
		v := s.ToneMap
		b = appendBool(b, v.Enabled)
		b = append(b, byte(v.Operator))
		b = appendF64(b, v.Exposure)
		b = appendF64(b, v.WhitePoint)
	case GroupBackgroundPattern:
		v := s.BackgroundPattern
		b = appendBool(b, v.Enabled)
		b = appendString(b, v.Color1)
		b = appendString(b, v.Color2)
		b = appendF64(b, v.Size)
	case GroupRadialMask:
		v := s.RadialMask
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.CX)
		b = appendF64(b, v.CY)
		b = appendF64(b, v.RX)
		b = appendF64(b, v.RY)
		b = appendF64(b, v.Feather)
		b = appendBool(b, v.Invert)
	case GroupLinearMask:
		v := s.LinearMask
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.X0)
		b = appendF64(b, v.Y0)
		b = appendF64(b, v.X1)
		b = appendF64(b, v.Y1)
		b = appendF64(b, v.Range)
	case GroupLumaMask:
		v := s.LumaMask
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Low)
		b = appendF64(b, v.High)
		b = appendF64(b, v.Softness)
	case GroupLUT:
		v := s.LUT
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Strength)
		b = appendLUTData(b, v.Cube)
	case GroupWatermark:
		v := s.Watermark
		b = appendBool(b, v.Enabled)
		b = appendF64(b, v.Opacity)
		b = append(b, byte(v.Anchor))
		b = appendF64(b, v.Margin)
		b = appendImageData(b, v.Image)
	case GroupFalseColor:
		v := s.FalseColor
		b = appendBool(b, v.Enabled)
		b = appendImageData(b, v.Palette)
	}
	return b
}

func readGroup(d *blobReader, g Group, s *State) {
	switch g {
	case GroupGeometry:
		v := &s.Geometry
		v.Enabled = d.bool()
		v.Rotation = d.f64()
		v.FlipH = d.bool()
		v.FlipV = d.bool()
		d.f64s(v.Crop[:])
	case GroupWhiteBalance:
		v := &s.WhiteBalance
		v.Enabled = d.bool()
		v.Temperature = d.f64()
		v.Tint = d.f64()
	case GroupExposure:
		v := &s.Exposure
		v.Enabled = d.bool()
		v.EV = d.f64()
	case GroupContrast:
		v := &s.Contrast
		v.Enabled = d.bool()
		v.Amount = d.f64()
		v.Pivot = d.f64()
	case GroupLevels:
		v := &s.Levels
		v.Enabled = d.bool()
		v.Black = d.f64()
		v.White = d.f64()
		v.Gamma = d.f64()
	case GroupCDL:
		v := &s.CDL
		v.Enabled = d.bool()
		d.f64s(v.Slope[:])
		d.f64s(v.Offset[:])
		d.f64s(v.Power[:])
		v.Saturation = d.f64()
	case GroupLiftGammaGain:
		v := &s.LiftGammaGain
		v.Enabled = d.bool()
		d.f64s(v.Lift[:])
		d.f64s(v.Gamma[:])
		d.f64s(v.Gain[:])
	case GroupToneCurve:
		v := &s.ToneCurve
		v.Enabled = d.bool()
		v.Points = d.points()
	case GroupHSL:
		v := &s.HSL
		v.Enabled = d.bool()
		d.f64s(v.Hue[:])
		d.f64s(v.Sat[:])
		d.f64s(v.Lum[:])
	case GroupSaturation:
		v := &s.Saturation
		v.Enabled = d.bool()
		v.Amount = d.f64()
		v.Vibrance = d.f64()
	case GroupSplitTone:
		v := &s.SplitTone
		v.Enabled = d.bool()
		v.ShadowHue = d.f64()
		v.ShadowSat = d.f64()
		v.HighlightHue = d.f64()
		v.HighlightSat = d.f64()
		v.Balance = d.f64()
	case GroupShadowsHighlights:
		v := &s.ShadowsHighlights
		v.Enabled = d.bool()
		v.Shadows = d.f64()
		v.Highlights = d.f64()
		v.Radius = d.f64()
	case GroupClarity:
		v := &s.Clarity
		v.Enabled = d.bool()
		v.Amount = d.f64()
		v.Radius = d.f64()
	case GroupTexture:
		v := &s.Texture
		v.Enabled = d.bool()
		v.Amount = d.f64()
	case GroupDehaze:
		v := &s.Dehaze
		v.Enabled = d.bool()
		v.Amount = d.f64()
	case GroupSharpen:
		v := &s.Sharpen
		v.Enabled = d.bool()
		v.Amount = d.f64()
		v.Radius = d.f64()
		v.Threshold = d.f64()
	case GroupNoiseReduction:
		v := &s.NoiseReduction
		v.Enabled = d.bool()
		v.Luma = d.f64()
		v.Chroma = d.f64()
		v.Detail = d.f64()
	case GroupGrain:
		v := &s.Grain
		v.Enabled = d.bool()
		v.Amount = d.f64()
		v.Size = d.f64()
		v.Roughness = d.f64()
		v.Seed = d.u32()
	case GroupVignette:
		v := &s.Vignette
		v.Enabled = d.bool()
		v.Amount = d.f64()
		v.Midpoint = d.f64()
		v.Roundness = d.f64()
		v.Feather = d.f64()
	case GroupChromaticAberration:
		v := &s.ChromaticAberration
		v.Enabled = d.bool()
		v.Amount = d.f64()
	case GroupLensDistortion:
		v := &s.LensDistortion
		v.Enabled = d.bool()
		v.K1 = d.f64()
		v.K2 = d.f64()
		v.Scale = d.f64()
	case GroupBloom:
		v := &s.Bloom
		v.Enabled = d.bool()
		v.Amount = d.f64()
		v.Radius = d.f64()
		v.Threshold = d.f64()
	case GroupFade:
		v := &s.Fade
		v.Enabled = d.bool()
		v.Amount = d.f64()
	case GroupInvert:
		s.Invert.Enabled = d.bool()
	case GroupMonochrome:
		v := &s.Monochrome
		v.Enabled = d.bool()
		v.MixR = d.f64()
		v.MixG = d.f64()
		v.MixB = d.f64()
	case GroupToneMap:
		v := &s.ToneMap
		v.Enabled = d.bool()
		v.Operator = ToneMapOperator(d.u8())
		v.Exposure = d.f64()
		v.WhitePoint = d.f64()
	case GroupBackgroundPattern:
		v := &s.BackgroundPattern
		v.Enabled = d.bool()
		v.Color1 = d.str()
		v.Color2 = d.str()
		v.Size = d.f64()
	case GroupRadialMask:
		v := &s.RadialMask
		v.Enabled = d.bool()
		v.CX = d.f64()
		v.CY = d.f64()
		v.RX = d.f64()
		v.RY = d.f64()
		v.Feather = d.f64()
		v.Invert = d.bool()
	case GroupLinearMask:
		v := &s.LinearMask
		v.Enabled = d.bool()
		v.X0 = d.f64()
		v.Y0 = d.f64()
		v.X1 = d.f64()
		v.Y1 = d.f64()
		v.Range = d.f64()
	case GroupLumaMask:
		v := &s.LumaMask
		v.Enabled = d.bool()
		v.Low = d.f64()
		v.High = d.f64()
		v.Softness = d.f64()
	case GroupLUT:
		v := &s.LUT
		v.Enabled = d.bool()
		v.Strength = d.f64()
		v.Cube = d.lut()
	case GroupWatermark:
		v := &s.Watermark
		v.Enabled = d.bool()
		v.Opacity = d.f64()
		v.Anchor = Anchor(d.u8())
		v.Margin = d.f64()
		v.Image = d.image()
	case GroupFalseColor:
		v := &s.FalseColor
		v.Enabled = d.bool()
		v.Palette = d.image()
	}
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

func appendF64(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func appendF64s(b []byte, vs []float64) []byte {
	for _, v := range vs {
		b = appendF64(b, v)
	}
	return b
}

func appendString(b []byte, s string) []byte {
	if len(s) > 0xFFFF {
		s = s[:0xFFFF]
	}
	b = binary.LittleEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

func appendPoints(b []byte, pts []CurvePoint) []byte {
	b = binary.LittleEndian.AppendUint16(b, uint16(len(pts)))
	for _, p := range pts {
		b = appendF64(b, p.X)
		b = appendF64(b, p.Y)
	}
	return b
}

func appendLUTData(b []byte, d *LUTData) []byte {
	if d == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	b = binary.LittleEndian.AppendUint16(b, uint16(d.Size))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(d.Table)))
	for _, v := range d.Table {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func appendImageData(b []byte, d *ImageData) []byte {
	if d == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	b = binary.LittleEndian.AppendUint32(b, uint32(d.Width))
	b = binary.LittleEndian.AppendUint32(b, uint32(d.Height))
	b = binary.LittleEndian.AppendUint32(b, uint32(d.Stride))
	b = binary.LittleEndian.AppendUint32(b, uint32(d.Format))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(d.Pixels)))
	return append(b, d.Pixels...)
}

// blobReader reads the codec's primitives with a sticky error: after the
// first short read every accessor returns zero values.
type blobReader struct {
	buf []byte
	off int
	err error
}

func (d *blobReader) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf)-d.off < n {
		d.err = errBlobShort
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *blobReader) u8() byte {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *blobReader) bool() bool { return d.u8() != 0 }

func (d *blobReader) u16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *blobReader) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *blobReader) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *blobReader) f64() float64 { return math.Float64frombits(d.u64()) }

func (d *blobReader) f64s(dst []float64) {
	for i := range dst {
		dst[i] = d.f64()
	}
}

func (d *blobReader) str() string {
	n := int(d.u16())
	b := d.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (d *blobReader) points() []CurvePoint {
	n := int(d.u16())
	if n == 0 || d.err != nil {
		return nil
	}
	pts := make([]CurvePoint, n)
	for i := range pts {
		pts[i].X = d.f64()
		pts[i].Y = d.f64()
	}
	if d.err != nil {
		return nil
	}
	return pts
}

func (d *blobReader) lut() *LUTData {
	if !d.bool() {
		return nil
	}
	size := int(d.u16())
	n := int(d.u32())
	if d.err != nil || n*4 > len(d.buf)-d.off {
		d.err = errBlobShort
		return nil
	}
	out := &LUTData{Size: size, Table: make([]float32, n)}
	for i := range out.Table {
		out.Table[i] = math.Float32frombits(d.u32())
	}
	if d.err != nil {
		return nil
	}
	return out
}

func (d *blobReader) image() *ImageData {
	if !d.bool() {
		return nil
	}
	out := &ImageData{
		Width:  int(d.u32()),
		Height: int(d.u32()),
		Stride: int(d.u32()),
		Format: gputypes.TextureFormat(d.u32()),
	}
	n := int(d.u32())
	b := d.take(n)
	if d.err != nil {
		return nil
	}
	out.Pixels = append([]byte(nil), b...)
	return out
}
