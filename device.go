package grade

import "github.com/gogpu/gputypes"

// UniformSlot addresses one uniform block on the Device. Every effect
// group owns the slot equal to its Group id; shared blocks follow after
// the per-group range.
type UniformSlot uint8

// GroupSlot returns the uniform slot owned by group g.
func GroupSlot(g Group) UniformSlot { return UniformSlot(g) }

// SlotEdgeScratch carries the shared edge-aware filter radius used by
// both ShadowsHighlights and Clarity. It is pushed before either group's
// own block whenever one of them is dirty.
const SlotEdgeScratch = UniformSlot(groupCount)

// UniformSlotCount is the number of uniform slots a Device must provide.
const UniformSlotCount = int(SlotEdgeScratch) + 1

// ResourceSlot addresses one texture or table binding on the Device.
type ResourceSlot uint8

// Resource slots, in binding order.
const (
	SlotCurve ResourceSlot = iota // tone-curve lookup table
	SlotLUT                       // 3D color lookup table
	SlotWatermark                 // watermark image
	SlotFalseColor                // false-color palette
	resourceSlotCount
)

// ResourceSlotCount is the number of resource slots a Device must provide.
const ResourceSlotCount = int(resourceSlotCount)

var resourceSlotNames = [resourceSlotCount]string{"curve", "lut", "watermark", "false_color"}

// String returns the slot name.
func (s ResourceSlot) String() string {
	if s >= resourceSlotCount {
		return "unknown"
	}
	return resourceSlotNames[s]
}

// Resource is one binding payload handed to Device.BindResource.
// Exactly one payload field matches the slot: Table for SlotCurve, Cube
// for SlotLUT, Image for the texture slots. A nil payload clears the
// binding to the device's neutral placeholder.
//
// Upload is set when the payload content changed since the previous
// flush. With Upload false the device only needs to refresh the binding;
// the previously uploaded content is still valid.
type Resource struct {
	Table  []float32
	Cube   *LUTData
	Image  *ImageData
	Upload bool
}

// Transfer identifies the transfer function of HDR source pixels.
type Transfer uint8

// Transfer functions.
const (
	TransferSDR Transfer = iota
	TransferLinear
	TransferPQ
	TransferHLG
)

var transferNames = [...]string{"sdr", "linear", "pq", "hlg"}

// String returns the transfer function name.
func (t Transfer) String() string {
	if int(t) >= len(transferNames) {
		return "unknown"
	}
	return transferNames[t]
}

// Primaries identifies the color primaries of HDR source pixels.
type Primaries uint8

// Color primaries.
const (
	PrimariesBT709 Primaries = iota
	PrimariesBT2020
	PrimariesDisplayP3
)

var primariesNames = [...]string{"bt709", "bt2020", "display_p3"}

// String returns the primaries name.
func (p Primaries) String() string {
	if int(p) >= len(primariesNames) {
		return "unknown"
	}
	return primariesNames[p]
}

// SourceFrame is the pixel input of one draw: a raw block plus enough
// metadata to interpret it. Zero Transfer/Primaries mean SDR sRGB.
type SourceFrame struct {
	Pixels    []byte
	Width     int
	Height    int
	Stride    int
	Format    gputypes.TextureFormat
	Channels  int
	Transfer  Transfer
	Primaries Primaries
}

// Device is the rendering capability the diffing engine pushes state
// into. Implementations own all graphics API specifics; the engine only
// ever writes uniform blocks and resource bindings, then draws.
//
// A Device is mutated from a single goroutine (the dispatcher's); it
// does not need to be safe for concurrent use.
type Device interface {
	// BindUniform replaces the uniform block in the given slot.
	// It must not retain data after returning.
	BindUniform(slot UniformSlot, data []float32)

	// BindResource points the given slot at a resource payload, uploading
	// content when res.Upload is set. A nil payload field resets the slot
	// to the device's neutral placeholder.
	BindResource(slot ResourceSlot, res *Resource)

	// Resize sets the output dimensions in pixels.
	Resize(w, h int) error

	// Clear fills the output with a constant color.
	Clear(c RGBA) error

	// Draw renders src through the current state into the output.
	Draw(src *SourceFrame) error

	// Readback copies the given output rectangle into a tightly packed
	// RGBA byte slice.
	Readback(x, y, w, h int) ([]byte, error)
}

// LossNotifier is an optional Device capability for backends whose
// rendering context can be lost and restored asynchronously (remote
// devices, windowing systems). The callback runs on an arbitrary
// goroutine. The returned cancel function removes the subscription;
// multiple independent subscribers are supported.
type LossNotifier interface {
	OnContextEvent(fn func(lost bool)) (cancel func())
}

// NullDevice is a Device that accepts everything and renders nothing.
// Useful as a default and in tests.
type NullDevice struct{}

var _ Device = NullDevice{}

// BindUniform implements Device.
func (NullDevice) BindUniform(UniformSlot, []float32) {}

// BindResource implements Device.
func (NullDevice) BindResource(ResourceSlot, *Resource) {}

// Resize implements Device.
func (NullDevice) Resize(int, int) error { return nil }

// Clear implements Device.
func (NullDevice) Clear(RGBA) error { return nil }

// Draw implements Device.
func (NullDevice) Draw(*SourceFrame) error { return nil }

// Readback implements Device.
func (NullDevice) Readback(x, y, w, h int) ([]byte, error) {
	return make([]byte, w*h*4), nil
}

// Mode names the render mode. Backends report their own name through
// this optional capability; dispatchers echo it in init results.
func (NullDevice) Mode() string { return "null" }
