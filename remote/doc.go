// Package remote connects an editing goroutine to the goroutine that
// owns the GPU device.
//
// The editing side holds a [Renderer]: a proxy whose setters mirror the
// diffing engine's groups but write into a local pending delta and
// return immediately. A render or readback call flushes the delta as
// one batched SyncState directive, then sends a correlated request and
// returns a [Pending] deferred result. The rendering side runs a
// [Dispatcher]: it owns a grade.Device and a grade.Engine and consumes
// messages strictly in arrival order, so device state is never mutated
// from two goroutines.
//
// Both halves talk through a [Transport]. [Pipe] connects them in
// process over buffered channels; [StreamTransport] frames envelopes
// over any io.ReadWriteCloser for crossing a process boundary.
//
//	caller, exec := remote.Pipe()
//	go remote.NewDispatcher(exec, dev).Serve(ctx)
//
//	r := remote.NewRenderer(caller)
//	defer r.Close()
//
//	r.SetExposure(grade.Exposure{Enabled: true, EV: 0.5})
//	p := r.RenderFrame(buf, 1920, 1080)
//	if err := p.Wait(ctx); err != nil {
//		// the previously presented frame stays up
//	}
//
// Because directives and requests travel one FIFO channel, the state
// delta flushed before a render request is always applied before that
// render executes. No ordering holds across independent in-flight
// requests beyond arrival order; callers that must present frames in
// order should keep at most one render in flight (see frame.Stager for
// the staging half of that pattern).
package remote
