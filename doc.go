// Package grade synchronizes image-grading render state across the
// boundary between an editing goroutine and a rendering goroutine.
//
// # Overview
//
// An interactive grading session tunes roughly thirty independent effect
// groups (exposure, contrast, CDL, masks, LUTs, ...) while frames render
// at interactive rates on a separate goroutine that owns the GPU device.
// grade provides the two halves of that synchronization:
//
//   - A diffing [Engine] that owns the [State] model and a dirty-group
//     set, turns full snapshots into minimal change sets, and pushes
//     dirty groups to a [Device] in a fixed flush order.
//   - An asynchronous proxy/dispatcher protocol (package remote) that
//     batches per-group deltas, correlates render and readback requests
//     with their responses, and manages buffer and pending-request
//     lifecycle through disposal and context loss.
//
// # Quick Start
//
//	caller, exec := remote.Pipe()
//
//	// Rendering goroutine: owns the device and the diffing engine.
//	go remote.NewDispatcher(exec, dev).Serve(ctx)
//
//	// Editing goroutine: non-blocking setters, deferred results.
//	r := remote.NewRenderer(caller)
//	r.SetExposure(grade.Exposure{Enabled: true, EV: 0.5})
//	p := r.RenderFrame(buf, 1920, 1080)
//	if err := p.Wait(ctx); err != nil {
//		// previous frame stays on screen
//	}
//
// # Architecture
//
// The module is organized into:
//   - grade: state model, diffing engine, Device capability
//   - proto: tagged message union and protocol version
//   - wire: binary framing for cross-process transports
//   - remote: Renderer proxy, Dispatcher, transports
//   - frame: transferable pixel buffers and the staging slot
//   - store: named preset persistence
//   - backend/wgpu: Device implementation on gogpu/wgpu
//
// Effect pixel math and composition order live behind the [Device] and
// [EffectComputation] capabilities; grade moves state, not pixels.
package grade

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
