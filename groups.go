package grade

import "math/bits"

// Group identifies one independently toggleable effect group.
//
// The declaration order below is the flush order: Flush pushes dirty
// groups to the Device exactly in this sequence. The order matters
// because ShadowsHighlights and Clarity share the edge-aware filter
// scratch radius, which must reach the Device before either group's own
// uniforms, and because resource-bound groups (LUT, Watermark,
// FalseColor) bind last.
type Group uint8

const (
	GroupGeometry Group = iota
	GroupWhiteBalance
	GroupExposure
	GroupContrast
	GroupLevels
	GroupCDL
	GroupLiftGammaGain
	GroupToneCurve
	GroupHSL
	GroupSaturation
	GroupSplitTone
	GroupShadowsHighlights
	GroupClarity
	GroupTexture
	GroupDehaze
	GroupSharpen
	GroupNoiseReduction
	GroupGrain
	GroupVignette
	GroupChromaticAberration
	GroupLensDistortion
	GroupBloom
	GroupFade
	GroupInvert
	GroupMonochrome
	GroupToneMap
	GroupBackgroundPattern
	GroupRadialMask
	GroupLinearMask
	GroupLumaMask
	GroupLUT
	GroupWatermark
	GroupFalseColor

	groupCount // sentinel, keep last
)

// GroupCount is the number of effect groups.
const GroupCount = int(groupCount)

// groupNames maps group identifiers to human-readable names for
// debugging and logging.
var groupNames = [groupCount]string{
	GroupGeometry:            "geometry",
	GroupWhiteBalance:        "white_balance",
	GroupExposure:            "exposure",
	GroupContrast:            "contrast",
	GroupLevels:              "levels",
	GroupCDL:                 "cdl",
	GroupLiftGammaGain:       "lift_gamma_gain",
	GroupToneCurve:           "tone_curve",
	GroupHSL:                 "hsl",
	GroupSaturation:          "saturation",
	GroupSplitTone:           "split_tone",
	GroupShadowsHighlights:   "shadows_highlights",
	GroupClarity:             "clarity",
	GroupTexture:             "texture",
	GroupDehaze:              "dehaze",
	GroupSharpen:             "sharpen",
	GroupNoiseReduction:      "noise_reduction",
	GroupGrain:               "grain",
	GroupVignette:            "vignette",
	GroupChromaticAberration: "chromatic_aberration",
	GroupLensDistortion:      "lens_distortion",
	GroupBloom:               "bloom",
	GroupFade:                "fade",
	GroupInvert:              "invert",
	GroupMonochrome:          "monochrome",
	GroupToneMap:             "tone_map",
	GroupBackgroundPattern:   "background_pattern",
	GroupRadialMask:          "radial_mask",
	GroupLinearMask:          "linear_mask",
	GroupLumaMask:            "luma_mask",
	GroupLUT:                 "lut",
	GroupWatermark:           "watermark",
	GroupFalseColor:          "false_color",
}

// String returns the group's name.
func (g Group) String() string {
	if g >= groupCount {
		return "unknown"
	}
	return groupNames[g]
}

// Valid reports whether g identifies an existing group.
func (g Group) Valid() bool { return g < groupCount }

// resourceGroups lists the groups that carry a device resource (texture
// or table) in addition to their uniform parameters. Their bindings are
// refreshed on every non-empty flush; see Engine.Flush.
var resourceGroups = [...]Group{GroupToneCurve, GroupLUT, GroupWatermark, GroupFalseColor}

// groupSet is a bitset over Group identifiers. Adding a group twice is
// idempotent; the set only empties through clear (flush or reset).
type groupSet uint64

func (s *groupSet) add(g Group)     { *s |= 1 << g }
func (s *groupSet) remove(g Group)  { *s &^= 1 << g }
func (s *groupSet) clear()          { *s = 0 }
func (s groupSet) has(g Group) bool { return s&(1<<g) != 0 }
func (s groupSet) empty() bool      { return s == 0 }
func (s groupSet) count() int       { return bits.OnesCount64(uint64(s)) }

// allGroups returns a set with every group marked.
func allGroups() groupSet { return groupSet(1)<<groupCount - 1 }

// groups returns the members in flush order.
func (s groupSet) groups() []Group {
	out := make([]Group, 0, s.count())
	for g := Group(0); g < groupCount; g++ {
		if s.has(g) {
			out = append(out, g)
		}
	}
	return out
}
