package proto

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/frame"
)

// ----------------------------------------------------------------------------
// Directives and requests (caller → execution)
// ----------------------------------------------------------------------------

// Capabilities describes the surface the caller wants initialized.
type Capabilities struct {
	// Width and Height are the initial surface size in pixels.
	Width  int
	Height int
	// Format is the preferred surface format. Zero means the device
	// default.
	Format gputypes.TextureFormat
	// HDR requests an output path that preserves values above 1.0.
	HDR bool
}

// Init asks the execution side to initialize its device. It is the one
// correlated directive: the caller usually wants to await readiness, so
// it carries a request id answered by InitResult.
type Init struct {
	// ID correlates the InitResult response.
	ID uint64
	// Caps describes the requested surface.
	Caps Capabilities
}

// Kind implements Message.
func (Init) Kind() Kind { return KindInit }

// RequestID implements Correlated.
func (m Init) RequestID() uint64 { return m.ID }

// Resize resizes the output surface. Fire-and-forget.
type Resize struct {
	Width  int
	Height int
}

// Kind implements Message.
func (Resize) Kind() Kind { return KindResize }

// Clear fills the output with a solid color. Fire-and-forget.
type Clear struct {
	Color grade.RGBA
}

// Kind implements Message.
func (Clear) Kind() Kind { return KindClear }

// SyncState carries a batched state delta. The dispatcher applies every
// carried group through its engine before handling any later message,
// so a render request sent after a SyncState always sees the new state.
type SyncState struct {
	Patch *grade.Patch
}

// Kind implements Message.
func (SyncState) Kind() Kind { return KindSyncState }

// RenderFrame asks for one frame to be rendered from an SDR source
// buffer. The buffer moves with the message: the sender must not touch
// it after send, and the receiver releases it.
type RenderFrame struct {
	// ID correlates the RenderDone or RenderError response.
	ID uint64
	// Buffer holds the source pixels. Ownership transfers.
	Buffer *frame.Buffer
	// Width and Height are the source dimensions in pixels.
	Width  int
	Height int
}

// Kind implements Message.
func (RenderFrame) Kind() Kind { return KindRenderFrame }

// RequestID implements Correlated.
func (m RenderFrame) RequestID() uint64 { return m.ID }

// RenderHDRFrame asks for one frame to be rendered from an HDR source
// buffer. Ownership of the buffer transfers as with RenderFrame.
type RenderHDRFrame struct {
	// ID correlates the RenderDone or RenderError response.
	ID uint64
	// Buffer holds the source pixels. Ownership transfers.
	Buffer *frame.Buffer
	// Width and Height are the source dimensions in pixels.
	Width  int
	Height int
	// Format describes the pixel data type (for example RGBA32Float).
	Format gputypes.TextureFormat
	// Channels is the number of interleaved channels per pixel.
	Channels int
	// Transfer is the source transfer function. Zero means SDR.
	Transfer grade.Transfer
	// Primaries is the source color primaries. Zero means BT.709.
	Primaries grade.Primaries
}

// Kind implements Message.
func (RenderHDRFrame) Kind() Kind { return KindRenderHDRFrame }

// RequestID implements Correlated.
func (m RenderHDRFrame) RequestID() uint64 { return m.ID }

// ReadPixel asks for a rectangle of rendered output, answered by
// PixelData.
type ReadPixel struct {
	// ID correlates the PixelData response.
	ID uint64
	// X, Y, Width, Height select the region in output pixels.
	X      int
	Y      int
	Width  int
	Height int
}

// Kind implements Message.
func (ReadPixel) Kind() Kind { return KindReadPixel }

// RequestID implements Correlated.
func (m ReadPixel) RequestID() uint64 { return m.ID }

// Dispose tears down the execution side. Best effort: the caller does
// not wait for an answer and none is sent.
type Dispose struct{}

// Kind implements Message.
func (Dispose) Kind() Kind { return KindDispose }

// ----------------------------------------------------------------------------
// Responses and notifications (execution → caller)
// ----------------------------------------------------------------------------

// Ready announces that the dispatcher is consuming messages.
type Ready struct{}

// Kind implements Message.
func (Ready) Kind() Kind { return KindReady }

// InitResult answers Init. A failed init is fatal to the session and is
// not retried.
type InitResult struct {
	// ID echoes the Init request id.
	ID uint64
	// Mode names the backing render mode, for example "wgpu".
	Mode string
	// Err is the failure reason, empty on success.
	Err string
}

// Kind implements Message.
func (InitResult) Kind() Kind { return KindInitResult }

// RequestID implements Correlated.
func (m InitResult) RequestID() uint64 { return m.ID }

// RenderDone answers a render request that succeeded.
type RenderDone struct {
	// ID echoes the render request id.
	ID uint64
}

// Kind implements Message.
func (RenderDone) Kind() Kind { return KindRenderDone }

// RequestID implements Correlated.
func (m RenderDone) RequestID() uint64 { return m.ID }

// RenderError answers a render request that failed. The failure is
// scoped to this one request; other pending requests are unaffected.
type RenderError struct {
	// ID echoes the render request id.
	ID uint64
	// Reason describes the failure.
	Reason string
}

// Kind implements Message.
func (RenderError) Kind() Kind { return KindRenderError }

// RequestID implements Correlated.
func (m RenderError) RequestID() uint64 { return m.ID }

// PixelData answers ReadPixel. Data is nil when the readback itself
// failed; that path is distinct from a request-level error and the
// caller decides how to treat it.
type PixelData struct {
	// ID echoes the ReadPixel request id.
	ID uint64
	// Data holds tightly packed RGBA bytes, or nil on readback failure.
	// Ownership transfers to the receiver.
	Data []byte
}

// Kind implements Message.
func (PixelData) Kind() Kind { return KindPixelData }

// RequestID implements Correlated.
func (m PixelData) RequestID() uint64 { return m.ID }

// ContextLost announces that the rendering context is gone. It
// correlates to no request; the dispatcher refuses render and readback
// work until ContextRestored.
type ContextLost struct{}

// Kind implements Message.
func (ContextLost) Kind() Kind { return KindContextLost }

// ContextRestored announces that the rendering context is back. The
// dispatcher re-pushes the complete effect state before handling
// further requests.
type ContextRestored struct{}

// Kind implements Message.
func (ContextRestored) Kind() Kind { return KindContextRestored }

// Compile-time interface checks.
var (
	_ Correlated = Init{}
	_ Message    = Resize{}
	_ Message    = Clear{}
	_ Message    = SyncState{}
	_ Correlated = RenderFrame{}
	_ Correlated = RenderHDRFrame{}
	_ Correlated = ReadPixel{}
	_ Message    = Dispose{}
	_ Message    = Ready{}
	_ Correlated = InitResult{}
	_ Correlated = RenderDone{}
	_ Correlated = RenderError{}
	_ Correlated = PixelData{}
	_ Message    = ContextLost{}
	_ Message    = ContextRestored{}
)
