package grade

import "github.com/gogpu/gputypes"

// State is the full render state: one field per effect group, the single
// source of truth for what should currently be on screen.
//
// A State is mutated only through Engine setters or ApplyState, never
// written partially. Resource payloads (*LUTData, *ImageData) are treated
// as immutable once handed to a setter: replace the pointer to change
// content, never mutate in place.
type State struct {
	Geometry            Geometry
	WhiteBalance        WhiteBalance
	Exposure            Exposure
	Contrast            Contrast
	Levels              Levels
	CDL                 CDL
	LiftGammaGain       LiftGammaGain
	ToneCurve           ToneCurve
	HSL                 HSL
	Saturation          Saturation
	SplitTone           SplitTone
	ShadowsHighlights   ShadowsHighlights
	Clarity             Clarity
	Texture             Texture
	Dehaze              Dehaze
	Sharpen             Sharpen
	NoiseReduction      NoiseReduction
	Grain               Grain
	Vignette            Vignette
	ChromaticAberration ChromaticAberration
	LensDistortion      LensDistortion
	Bloom               Bloom
	Fade                Fade
	Invert              Invert
	Monochrome          Monochrome
	ToneMap             ToneMap
	BackgroundPattern   BackgroundPattern
	RadialMask          RadialMask
	LinearMask          LinearMask
	LumaMask            LumaMask
	LUT                 LUT
	Watermark           Watermark
	FalseColor          FalseColor
}

// Geometry crops, rotates and mirrors the source frame. Crop holds
// fractional insets (left, top, right, bottom) of the frame size.
type Geometry struct {
	Enabled  bool
	Rotation float64 // degrees, counter-clockwise
	FlipH    bool
	FlipV    bool
	Crop     [4]float64
}

// WhiteBalance shifts color temperature and green-magenta tint.
// Both values are relative offsets; zero is neutral.
type WhiteBalance struct {
	Enabled     bool
	Temperature float64
	Tint        float64
}

// Exposure scales scene brightness in stops.
type Exposure struct {
	Enabled bool
	EV      float64
}

// Contrast steepens the tone response around Pivot. Pivot divides the
// tonal range and is epsilon-sanitized against non-finite input.
type Contrast struct {
	Enabled bool
	Amount  float64
	Pivot   float64
}

// Levels remaps Black..White to the full range with a Gamma correction.
type Levels struct {
	Enabled bool
	Black   float64
	White   float64
	Gamma   float64
}

// CDL is the ASC color decision list primary: per-channel slope, offset
// and power plus a saturation trim.
type CDL struct {
	Enabled    bool
	Slope      [3]float64
	Offset     [3]float64
	Power      [3]float64
	Saturation float64
}

// LiftGammaGain is the classic three-way color corrector.
type LiftGammaGain struct {
	Enabled bool
	Lift    [3]float64
	Gamma   [3]float64
	Gain    [3]float64
}

// CurvePoint is one tone-curve control point in normalized coordinates.
type CurvePoint struct {
	X, Y float64
}

// ToneCurve applies a point-sampled tone curve. The group only takes
// effect with at least two control points; Active reports that derived
// condition.
type ToneCurve struct {
	Enabled bool
	Points  []CurvePoint
}

// Active reports whether the curve affects output: enabled and at least
// two control points.
func (t ToneCurve) Active() bool { return t.Enabled && len(t.Points) >= 2 }

// HSL adjusts hue, saturation and luminance per color band
// (red, orange, yellow, green, aqua, blue, purple, magenta).
type HSL struct {
	Enabled bool
	Hue     [8]float64
	Sat     [8]float64
	Lum     [8]float64
}

// Saturation applies global saturation and vibrance offsets.
type Saturation struct {
	Enabled  bool
	Amount   float64
	Vibrance float64
}

// SplitTone tints shadows and highlights independently.
type SplitTone struct {
	Enabled      bool
	ShadowHue    float64
	ShadowSat    float64
	HighlightHue float64
	HighlightSat float64
	Balance      float64
}

// ShadowsHighlights recovers shadow and highlight detail. Radius feeds
// the edge-aware filter scratch shared with Clarity.
type ShadowsHighlights struct {
	Enabled    bool
	Shadows    float64
	Highlights float64
	Radius     float64
}

// Clarity adds local midtone contrast. Radius feeds the edge-aware
// filter scratch shared with ShadowsHighlights.
type Clarity struct {
	Enabled bool
	Amount  float64
	Radius  float64
}

// Texture accentuates medium-frequency detail.
type Texture struct {
	Enabled bool
	Amount  float64
}

// Dehaze removes or adds atmospheric haze.
type Dehaze struct {
	Enabled bool
	Amount  float64
}

// Sharpen applies an unsharp mask.
type Sharpen struct {
	Enabled   bool
	Amount    float64
	Radius    float64
	Threshold float64
}

// NoiseReduction smooths luma and chroma noise while preserving Detail.
type NoiseReduction struct {
	Enabled bool
	Luma    float64
	Chroma  float64
	Detail  float64
}

// Grain overlays simulated film grain. Seed selects the noise pattern.
type Grain struct {
	Enabled   bool
	Amount    float64
	Size      float64
	Roughness float64
	Seed      uint32
}

// Vignette darkens or lightens the frame edges.
type Vignette struct {
	Enabled   bool
	Amount    float64
	Midpoint  float64
	Roundness float64
	Feather   float64
}

// ChromaticAberration compensates lateral color fringing.
type ChromaticAberration struct {
	Enabled bool
	Amount  float64
}

// LensDistortion corrects barrel/pincushion distortion. Scale divides
// the sampling coordinates and is epsilon-sanitized.
type LensDistortion struct {
	Enabled bool
	K1      float64
	K2      float64
	Scale   float64
}

// Bloom spreads highlights above Threshold.
type Bloom struct {
	Enabled   bool
	Amount    float64
	Radius    float64
	Threshold float64
}

// Fade lifts blacks toward a washed-out look.
type Fade struct {
	Enabled bool
	Amount  float64
}

// Invert inverts the image. Enable-only group.
type Invert struct {
	Enabled bool
}

// Monochrome converts to black and white with a channel mixer.
type Monochrome struct {
	Enabled bool
	MixR    float64
	MixG    float64
	MixB    float64
}

// ToneMapOperator selects the HDR tone-mapping curve.
type ToneMapOperator uint8

// Tone-mapping operators.
const (
	ToneMapReinhard ToneMapOperator = iota
	ToneMapHable
	ToneMapACES
)

var toneMapNames = [...]string{"reinhard", "hable", "aces"}

// String returns the operator name.
func (op ToneMapOperator) String() string {
	if int(op) >= len(toneMapNames) {
		return "unknown"
	}
	return toneMapNames[op]
}

// ToneMap compresses HDR input into the display range. WhitePoint acts
// as a divisor and is epsilon-sanitized.
type ToneMap struct {
	Enabled    bool
	Operator   ToneMapOperator
	Exposure   float64
	WhitePoint float64
}

// BackgroundPattern draws a checker pattern behind transparent regions.
// Colors are hex strings; the group compares and uploads their
// normalized RGBA values, so two spellings of the same color are one
// value. Active additionally requires a positive cell size.
type BackgroundPattern struct {
	Enabled bool
	Color1  string
	Color2  string
	Size    float64 // cell size in pixels
}

// Active reports whether the pattern affects output: enabled with a
// positive cell size.
func (b BackgroundPattern) Active() bool { return b.Enabled && b.Size > 0 }

// Colors returns the normalized pattern colors.
func (b BackgroundPattern) Colors() (RGBA, RGBA) { return Hex(b.Color1), Hex(b.Color2) }

// RadialMask limits subsequent adjustments to an ellipse. RX and RY act
// as divisors and are epsilon-sanitized.
type RadialMask struct {
	Enabled bool
	CX, CY  float64
	RX, RY  float64
	Feather float64
	Invert  bool
}

// LinearMask limits subsequent adjustments to a gradient band.
type LinearMask struct {
	Enabled bool
	X0, Y0  float64
	X1, Y1  float64
	Range   float64
}

// LumaMask limits subsequent adjustments to a luminance range.
type LumaMask struct {
	Enabled  bool
	Low      float64
	High     float64
	Softness float64
}

// LUTData is a 3D lookup table in cube form: Size³ RGB triples, red
// fastest. Immutable once handed to a setter; replace the pointer to
// change content.
type LUTData struct {
	Size  int
	Table []float32
}

// Clone returns an independent copy of the table.
func (d *LUTData) Clone() *LUTData {
	if d == nil {
		return nil
	}
	out := &LUTData{Size: d.Size, Table: make([]float32, len(d.Table))}
	copy(out.Table, d.Table)
	return out
}

// ImageData is a raw pixel payload for watermark and palette resources.
// Immutable once handed to a setter.
type ImageData struct {
	Width  int
	Height int
	Stride int
	Format gputypes.TextureFormat
	Pixels []byte
}

// Clone returns an independent copy of the pixels.
func (d *ImageData) Clone() *ImageData {
	if d == nil {
		return nil
	}
	out := *d
	out.Pixels = make([]byte, len(d.Pixels))
	copy(out.Pixels, d.Pixels)
	return &out
}

// LUT applies a 3D lookup table blended by Strength. Content changes are
// tracked by pointer identity on Cube.
type LUT struct {
	Enabled  bool
	Strength float64
	Cube     *LUTData
}

// Anchor positions the watermark within the frame.
type Anchor uint8

// Watermark anchors.
const (
	AnchorBottomRight Anchor = iota
	AnchorBottomLeft
	AnchorTopRight
	AnchorTopLeft
	AnchorCenter
)

var anchorNames = [...]string{"bottom_right", "bottom_left", "top_right", "top_left", "center"}

// String returns the anchor name.
func (a Anchor) String() string {
	if int(a) >= len(anchorNames) {
		return "unknown"
	}
	return anchorNames[a]
}

// Watermark composites an image over the output. Content changes are
// tracked by pointer identity on Image.
type Watermark struct {
	Enabled bool
	Opacity float64
	Anchor  Anchor
	Margin  float64 // fraction of the frame's short side
	Image   *ImageData
}

// FalseColor replaces luminance bands with palette colors for exposure
// checking. Content changes are tracked by pointer identity on Palette.
type FalseColor struct {
	Enabled bool
	Palette *ImageData
}

// DefaultState returns the neutral state: every group disabled, every
// parameter at its no-op value.
func DefaultState() *State {
	return &State{
		Contrast:          Contrast{Pivot: 0.5},
		Levels:            Levels{White: 1, Gamma: 1},
		CDL:               CDL{Slope: [3]float64{1, 1, 1}, Power: [3]float64{1, 1, 1}, Saturation: 1},
		LiftGammaGain:     LiftGammaGain{Gamma: [3]float64{1, 1, 1}, Gain: [3]float64{1, 1, 1}},
		ShadowsHighlights: ShadowsHighlights{Radius: 30},
		Clarity:           Clarity{Radius: 20},
		Sharpen:           Sharpen{Radius: 1},
		NoiseReduction:    NoiseReduction{Detail: 0.5},
		Grain:             Grain{Size: 1, Roughness: 0.5},
		Vignette:          Vignette{Midpoint: 0.5, Feather: 0.5},
		LensDistortion:    LensDistortion{Scale: 1},
		Bloom:             Bloom{Radius: 10, Threshold: 0.8},
		Monochrome:        Monochrome{MixR: 0.2126, MixG: 0.7152, MixB: 0.0722},
		ToneMap:           ToneMap{Exposure: 1, WhitePoint: 4},
		BackgroundPattern: BackgroundPattern{Color1: "#404040", Color2: "#4a4a4a"},
		RadialMask:        RadialMask{CX: 0.5, CY: 0.5, RX: 0.5, RY: 0.5, Feather: 0.5},
		LinearMask:        LinearMask{Y1: 1, Range: 0.5},
		LumaMask:          LumaMask{High: 1, Softness: 0.1},
		LUT:               LUT{Strength: 1},
		Watermark:         Watermark{Opacity: 1, Margin: 0.02},
	}
}

// Clone returns an independent copy of the state. Tone-curve points are
// deep-copied; resource payloads are shared because they are immutable
// once handed over.
func (s *State) Clone() *State {
	out := *s
	if len(s.ToneCurve.Points) > 0 {
		out.ToneCurve.Points = make([]CurvePoint, len(s.ToneCurve.Points))
		copy(out.ToneCurve.Points, s.ToneCurve.Points)
	}
	return &out
}
